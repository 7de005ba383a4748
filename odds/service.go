package odds

import (
	"context"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"
)

var sportKeyPattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Service serves odds from cache, falling back to the provider.
// Upstream failures degrade to an empty list and are never returned to callers.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration

	// Optional metric hooks
	OnCacheHit      func()
	OnUpstreamError func()
}

// NewService creates an odds service. cache may be nil to disable caching.
func NewService(provider Provider, cache Cache, ttl time.Duration) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}

// GetOdds returns the events for sport, or an empty list when they cannot be obtained
func (s *Service) GetOdds(ctx context.Context, sport string) []Event {
	if !sportKeyPattern.MatchString(sport) {
		log.WithField("sport", sport).Debug("Rejected malformed sport key")
		return []Event{}
	}

	if s.cache != nil {
		events, ok, err := s.cache.Get(ctx, sport)
		if err != nil {
			log.WithFields(log.Fields{
				"sport": sport,
				"error": err,
			}).Warn("Odds cache read failed")
		} else if ok {
			log.WithField("sport", sport).Debug("Odds cache hit")
			if s.OnCacheHit != nil {
				s.OnCacheHit()
			}
			return nonNil(events)
		}
	}

	events, err := s.provider.FetchOdds(ctx, sport)
	if err != nil {
		log.WithFields(log.Fields{
			"sport": sport,
			"error": err,
		}).Warn("Odds upstream unavailable, serving empty list")
		if s.OnUpstreamError != nil {
			s.OnUpstreamError()
		}
		return []Event{}
	}
	events = nonNil(events)

	if s.cache != nil {
		if err := s.cache.Set(ctx, sport, events, s.ttl); err != nil {
			log.WithFields(log.Fields{
				"sport": sport,
				"error": err,
			}).Warn("Odds cache write failed")
		}
	}

	return events
}

func nonNil(events []Event) []Event {
	if events == nil {
		return []Event{}
	}
	return events
}
