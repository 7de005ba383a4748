package server

import (
	"net/http"
	"strconv"

	"sportsbook/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) listPendingDeposits(c *gin.Context) {
	txs, err := s.Admin.ListPendingDeposits(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": txs})
}

func (s *Server) approveDeposit(c *gin.Context) {
	tx, err := s.Deposits.ApproveDeposit(c.Request.Context(), c.Param("id"), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit approved", "transaction": tx})
}

func (s *Server) rejectDeposit(c *gin.Context) {
	var req rejectRequest
	if !s.bind(c, &req) {
		return
	}

	tx, err := s.Deposits.RejectDeposit(c.Request.Context(), c.Param("id"), currentSession(c).UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit rejected", "transaction": tx})
}

func (s *Server) listPendingWithdrawals(c *gin.Context) {
	reqs, err := s.Admin.ListPendingWithdrawals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": reqs})
}

func (s *Server) approveWithdrawal(c *gin.Context) {
	wr, err := s.Withdrawals.ApproveWithdrawal(c.Request.Context(), c.Param("id"), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal approved", "withdrawal": wr})
}

func (s *Server) rejectWithdrawal(c *gin.Context) {
	var req rejectRequest
	if !s.bind(c, &req) {
		return
	}

	wr, err := s.Withdrawals.RejectWithdrawal(c.Request.Context(), c.Param("id"), currentSession(c).UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal rejected and refunded", "withdrawal": wr})
}

func (s *Server) listUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	result, err := s.Admin.ListUsers(c.Request.Context(), c.Query("q"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) userHistory(c *gin.Context) {
	history, err := s.Admin.UserHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) settleBet(c *gin.Context) {
	var req settleRequest
	if !s.bind(c, &req) {
		return
	}

	wager, err := s.Settlement.SettleWager(c.Request.Context(), c.Param("id"), models.WagerStatus(req.Result))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bet settled", "bet": wager})
}
