package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sportsbook/events"
	"sportsbook/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_RecordsMatchedRoute(t *testing.T) {
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/wagers/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wagers/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/wagers/:id", "404")))
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	m := New()
	r := gin.New()
	r.Use(m.Middleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandleEvent_CountsTypesAndAmounts(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.handleEvent(ctx, events.WagerPlacedEvent{WagerID: "w1", Stake: decimal.RequireFromString("20")})
	m.handleEvent(ctx, events.WagerSettledEvent{WagerID: "w1", Status: models.WagerStatusWon, Payout: decimal.RequireFromString("77.7")})
	m.handleEvent(ctx, events.WagerSettledEvent{WagerID: "w2", Status: models.WagerStatusLost, Payout: decimal.Zero})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("wager_placed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("wager_settled")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.stakes))
	assert.InDelta(t, 77.7, testutil.ToFloat64(m.payouts), 0.0001)
}

func TestRegister_ReceivesBusEvents(t *testing.T) {
	m := New()
	bus := events.NewBus()
	m.Register(bus)

	bus.Emit(context.Background(), events.UserRegisteredEvent{UserID: "u1"})
	bus.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("user_registered")))
}

func TestOddsAndSettlementCounters(t *testing.T) {
	m := New()

	m.OddsCacheHit()
	m.OddsCacheHit()
	m.OddsUpstreamError()
	m.SettlementMessage("settled")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.oddsCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oddsUpstreamErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("settled")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.OddsCacheHit()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "sportsbook_odds_cache_hits_total 1"))
	assert.Contains(t, body, "go_goroutines")
}
