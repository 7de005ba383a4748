package server

import (
	"net/http"

	"sportsbook/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) createDeposit(c *gin.Context) {
	var req depositRequest
	if !s.bind(c, &req) {
		return
	}

	tx, err := s.Deposits.CreateDeposit(c.Request.Context(), currentSession(c).UserID, req.Amount, req.Method, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) requestWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if !s.bind(c, &req) {
		return
	}

	wr, err := s.Withdrawals.RequestWithdrawal(c.Request.Context(), currentSession(c).UserID, req.Amount, models.WithdrawalMethod(req.MethodType), req.MethodDetails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wr)
}

func (s *Server) listTransactions(c *gin.Context) {
	txs, err := s.Users.ListTransactions(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
