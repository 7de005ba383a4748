package server

import (
	"net/http"

	"sportsbook/apperr"
	"sportsbook/models"
	"sportsbook/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// bind decodes the JSON body into req and validates it
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(c, validationError(err))
		return false
	}
	return true
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !s.bind(c, &req) {
		return
	}

	user, err := s.Users.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		State:     req.State,
		BirthDate: parseDate(req.BirthDate),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	s.respondWithToken(c, http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bind(c, &req) {
		return
	}

	user, err := s.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	s.respondWithToken(c, http.StatusOK, user)
}

func (s *Server) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, authResponse{User: user, Token: token})
}

// logout discards the caller's slip. Tokens are stateless and simply expire.
func (s *Server) logout(c *gin.Context) {
	session := currentSession(c)
	if err := s.slips.close(c.Request.Context(), session.UserID); err != nil {
		log.WithFields(log.Fields{
			"userID": session.UserID,
			"error":  err,
		}).Warn("Failed to discard slip on logout")
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) getProfile(c *gin.Context) {
	user, err := s.Users.GetUser(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileRequest
	if !s.bind(c, &req) {
		return
	}

	user, err := s.Users.UpdateProfile(c.Request.Context(), currentSession(c).UserID, service.ProfileUpdate{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		State:     req.State,
		BirthDate: parseDate(req.BirthDate),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) getOdds(c *gin.Context) {
	events := s.odds.GetOdds(c.Request.Context(), c.Param("sport"))
	c.JSON(http.StatusOK, gin.H{"events": events})
}
