// Package notify posts approved payouts to the payout team's Discord channel.
package notify

import (
	"context"

	"sportsbook/events"
	"sportsbook/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// WebhookExecutor sends a message through a Discord webhook. *discordgo.Session satisfies it.
type WebhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// PayoutNotifier announces approved withdrawals
type PayoutNotifier struct {
	executor  WebhookExecutor
	webhookID string
	token     string
}

// NewPayoutNotifier creates a notifier posting to the given webhook
func NewPayoutNotifier(executor WebhookExecutor, webhookID, token string) *PayoutNotifier {
	return &PayoutNotifier{
		executor:  executor,
		webhookID: webhookID,
		token:     token,
	}
}

// Register subscribes the notifier to withdrawal decisions
func (n *PayoutNotifier) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeWithdrawalResolved, n.HandleWithdrawalResolved)
}

// HandleWithdrawalResolved posts a payout embed for approved withdrawals and ignores the rest
func (n *PayoutNotifier) HandleWithdrawalResolved(ctx context.Context, event events.Event) {
	e, ok := event.(events.WithdrawalResolvedEvent)
	if !ok {
		log.WithField("eventType", event.Type()).Warn("Payout notifier received unexpected event")
		return
	}
	if e.Status != models.RequestStatusApproved {
		return
	}

	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{CreatePayoutEmbed(e)},
	}

	if _, err := n.executor.WebhookExecute(n.webhookID, n.token, true, params, discordgo.WithContext(ctx)); err != nil {
		log.WithFields(log.Fields{
			"requestID": e.RequestID,
			"userID":    e.UserID,
			"error":     err,
		}).Error("Failed to post payout notification")
		return
	}

	log.WithFields(log.Fields{
		"requestID": e.RequestID,
		"amount":    e.Amount.StringFixed(2),
	}).Info("Posted payout notification")
}
