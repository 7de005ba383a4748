package server

import (
	"net/http"
	"strings"
	"time"

	"sportsbook/apperr"
	"sportsbook/auth"
	"sportsbook/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const sessionKey = "session"

// requestLogger replaces gin's logger with logrus
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"latency":  time.Since(start).String(),
			"clientIP": c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Info("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("Handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
	})
}

// authenticate attaches the session carried by the request token.
// Both "Authorization: Bearer <jwt>" and a bare "token" header are accepted.
func (s *Server) authenticate(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.GetHeader("token")
	}
	if token == "" {
		abortWithError(c, apperr.ErrAuthRequired)
		return
	}

	session, err := s.tokens.Parse(token)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Set(sessionKey, session)
	c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(currentSession(c), role); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// requireIDParam answers 404 for an :id that cannot name a stored entity
func requireIDParam(entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param("id"); !models.ValidID(id) {
			abortWithError(c, apperr.NotFound(entity, id))
		}
	}
}

func currentSession(c *gin.Context) *auth.Session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := value.(*auth.Session)
	return session
}
