package server

import (
	"net/http"

	"sportsbook/models"
	"sportsbook/slip"

	"github.com/gin-gonic/gin"
)

func (s *Server) openSlip(c *gin.Context) (*slip.Slip, bool) {
	bs, err := s.slips.get(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return bs, true
}

func (s *Server) getSlip(c *gin.Context) {
	bs, ok := s.openSlip(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, bs.Snapshot())
}

func (s *Server) toggleSelection(c *gin.Context) {
	var req selectionRequest
	if !s.bind(c, &req) {
		return
	}
	bs, ok := s.openSlip(c)
	if !ok {
		return
	}

	change, err := bs.Toggle(c.Request.Context(), req.selection())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change": change, "slip": bs.Snapshot()})
}

// setStake accepts free-form input; anything unparsable or negative becomes zero
func (s *Server) setStake(c *gin.Context) {
	var req stakeRequest
	if !s.bind(c, &req) {
		return
	}
	bs, ok := s.openSlip(c)
	if !ok {
		return
	}

	if err := bs.SetStakeInput(c.Request.Context(), req.Stake); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bs.Snapshot())
}

func (s *Server) clearSlip(c *gin.Context) {
	bs, ok := s.openSlip(c)
	if !ok {
		return
	}
	if err := bs.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bs.Snapshot())
}

func (s *Server) submitSlip(c *gin.Context) {
	bs, ok := s.openSlip(c)
	if !ok {
		return
	}

	wager, err := bs.Submit(c.Request.Context(), s.Wagers, currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wager)
}

func (s *Server) placeBet(c *gin.Context) {
	var req placeBetRequest
	if !s.bind(c, &req) {
		return
	}

	selections := make([]models.Selection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		selections = append(selections, sel.selection())
	}

	wager, err := s.Wagers.PlaceWager(c.Request.Context(), currentSession(c).UserID, selections, req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, placeBetResponse{
		WagerID:   wager.ID,
		TotalOdds: wager.TotalOdds,
		Stake:     wager.Stake,
		Status:    wager.Status,
	})
}

func (s *Server) listBets(c *gin.Context) {
	wagers, err := s.Wagers.ListUserWagers(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bets": wagers})
}
