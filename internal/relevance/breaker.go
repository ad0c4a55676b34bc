package relevance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/example/conference-agenda/internal/metrics"
	"github.com/example/conference-agenda/internal/scheduler"
)

// BreakerSettings tunes the circuit breaker around a provider.
type BreakerSettings struct {
	Name string
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
}

// DefaultBreakerSettings returns conservative settings for remote providers.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "relevance",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 3,
	}
}

// Breaker stops calling a failing provider until it recovers, so agenda
// requests degrade to tag overlap without waiting on timeouts.
type Breaker struct {
	next   Provider
	cb     *gobreaker.CircuitBreaker[map[string]float64]
	name   string
	logger *slog.Logger
}

// NewBreaker wraps next in a circuit breaker.
func NewBreaker(next Provider, settings BreakerSettings, logger *slog.Logger) *Breaker {
	defaults := DefaultBreakerSettings()
	if settings.Name == "" {
		settings.Name = defaults.Name
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = defaults.MaxRequests
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaults.Timeout
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = defaults.ConsecutiveFailures
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Breaker{next: next, name: settings.Name, logger: logger}
	metrics.RelevanceBreakerState.WithLabelValues(settings.Name).Set(0)
	b.cb = gobreaker.NewCircuitBreaker[map[string]float64](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up is not a provider failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("relevance circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.RelevanceBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return b
}

// Scores implements Provider.
func (b *Breaker) Scores(ctx context.Context, profile scheduler.UserProfile, sessionIDs []string) (map[string]float64, error) {
	scores, err := b.cb.Execute(func() (map[string]float64, error) {
		return b.next.Scores(ctx, profile, sessionIDs)
	})
	metrics.ObserveRelevance(b.name, err)
	return scores, err
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
