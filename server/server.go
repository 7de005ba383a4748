// Package server exposes the sportsbook over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sportsbook/auth"
	"sportsbook/metrics"
	"sportsbook/models"
	"sportsbook/odds"
	"sportsbook/service"
	"sportsbook/slip"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// Services groups the domain services the handlers call
type Services struct {
	Users       service.UserService
	Wagers      service.WagerService
	Settlement  service.SettlementService
	Deposits    service.DepositService
	Withdrawals service.WithdrawalService
	Admin       service.AdminService
}

// OddsSource returns the events of a sport. It never fails; an unavailable provider yields an empty list.
type OddsSource interface {
	GetOdds(ctx context.Context, sport string) []odds.Event
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options configures a Server. Metrics is optional. A zero SlipIdleTimeout uses the default.
type Options struct {
	Services
	Tokens          *auth.TokenIssuer
	Odds            OddsSource
	SlipStore       slip.Store
	SlipIdleTimeout time.Duration
	Health          HealthChecker
	Metrics         *metrics.Metrics
}

// Server owns the router and the open bet slips
type Server struct {
	Services
	tokens   *auth.TokenIssuer
	odds     OddsSource
	slips    *slipRegistry
	health   HealthChecker
	metrics  *metrics.Metrics
	validate *validator.Validate
	router   *gin.Engine
	http     *http.Server
}

// New builds the server and its routes
func New(opts Options) *Server {
	s := &Server{
		Services: opts.Services,
		tokens:   opts.Tokens,
		odds:     opts.Odds,
		slips:    newSlipRegistry(opts.SlipStore, opts.SlipIdleTimeout),
		health:   opts.Health,
		metrics:  opts.Metrics,
		validate: validator.New(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), recovery())
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	r.GET("/healthz", s.healthz)

	r.POST("/auth/register", s.register)
	r.POST("/auth/login", s.login)
	r.GET("/odds/:sport", s.getOdds)

	authed := r.Group("/", s.authenticate)
	authed.POST("/auth/logout", s.logout)
	authed.GET("/me", s.getProfile)
	authed.PATCH("/me", s.updateProfile)

	authed.GET("/slip", s.getSlip)
	authed.POST("/slip/selections", s.toggleSelection)
	authed.PUT("/slip/stake", s.setStake)
	authed.DELETE("/slip", s.clearSlip)
	authed.POST("/slip/submit", s.submitSlip)

	authed.POST("/bets", s.placeBet)
	authed.GET("/bets", s.listBets)

	authed.POST("/deposits", s.createDeposit)
	authed.POST("/withdrawals", s.requestWithdrawal)
	authed.GET("/transactions", s.listTransactions)

	admin := authed.Group("/admin", requireRole(models.RoleAdmin))
	admin.GET("/deposits", s.listPendingDeposits)
	admin.POST("/deposits/approve/:id", requireIDParam("deposit"), s.approveDeposit)
	admin.POST("/deposits/reject/:id", requireIDParam("deposit"), s.rejectDeposit)
	admin.GET("/withdrawals", s.listPendingWithdrawals)
	admin.POST("/withdrawals/approve/:id", requireIDParam("withdrawal"), s.approveWithdrawal)
	admin.POST("/withdrawals/reject/:id", requireIDParam("withdrawal"), s.rejectWithdrawal)
	admin.GET("/users", s.listUsers)
	admin.GET("/users/:id/history", requireIDParam("user"), s.userHistory)
	admin.POST("/bets/:id/settle", requireIDParam("wager"), s.settleBet)

	return r
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithField("addr", addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve http: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests. Stored slips are kept for the next session.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
	defer cancel()

	if err := s.health.Health(ctx); err != nil {
		log.WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
