// Package odds proxies an upstream odds feed, caching results per sport.
package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sportsbook/apperr"

	"github.com/shopspring/decimal"
)

// Outcome is one priced result within a market
type Outcome struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Point *float64        `json:"point,omitempty"`
}

// Market groups the outcomes of one bet type, e.g. h2h
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Bookmaker is one source of prices for an event
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Event is an upcoming fixture with its prices
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Provider fetches odds for a sport from an upstream feed
type Provider interface {
	FetchOdds(ctx context.Context, sport string) ([]Event, error)
}

// HTTPProvider talks to a The Odds API compatible endpoint
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Regions string
	Markets string
	HTTP    *http.Client
}

// NewHTTPProvider creates a provider with a short request timeout
func NewHTTPProvider(baseURL, apiKey, regions string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Regions: regions,
		Markets: "h2h",
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// FetchOdds requests {base}/sports/{sport}/odds. Transport failures and non-2xx
// responses are reported as apperr.ErrUpstream.
func (p *HTTPProvider) FetchOdds(ctx context.Context, sport string) ([]Event, error) {
	query := url.Values{}
	query.Set("apiKey", p.APIKey)
	query.Set("regions", p.Regions)
	query.Set("markets", p.Markets)
	query.Set("oddsFormat", "decimal")
	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", p.BaseURL, url.PathEscape(sport), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Upstream("build odds request", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := p.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Upstream("fetch odds", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, apperr.Upstream("fetch odds", fmt.Errorf("http %d: %s", res.StatusCode, body))
	}

	var events []Event
	if err := json.NewDecoder(res.Body).Decode(&events); err != nil {
		return nil, apperr.Upstream("decode odds", err)
	}
	return events, nil
}
