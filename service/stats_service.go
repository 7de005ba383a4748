package service

import (
	"sportsbook/models"

	"github.com/shopspring/decimal"
)

// ComputeWagerStats aggregates a user's wagers for the admin drill-down
func ComputeWagerStats(wagers []*models.Wager) *models.WagerStats {
	stats := &models.WagerStats{
		TotalStaked:  decimal.Zero,
		TotalPaidOut: decimal.Zero,
		BiggestWin:   decimal.Zero,
	}

	for _, w := range wagers {
		stats.TotalWagers++
		stats.TotalStaked = stats.TotalStaked.Add(w.Stake)

		switch w.Status {
		case models.WagerStatusPending:
			stats.Pending++
		case models.WagerStatusLost:
			stats.Lost++
		case models.WagerStatusWon:
			stats.Won++
			payout := models.Payout(w.Stake, w.TotalOdds)
			stats.TotalPaidOut = stats.TotalPaidOut.Add(payout)
			if payout.GreaterThan(stats.BiggestWin) {
				stats.BiggestWin = payout
			}
		}
	}

	return stats
}
