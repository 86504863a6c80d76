package hass

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/metrics"
)

// BreakerClient guards a StateClient with a circuit breaker so that a
// restarting platform is not hammered with a full cycle of requests every
// interval. While open, every call fails fast with gobreaker.ErrOpenState,
// which the engine treats like any other transient I/O error.
type BreakerClient struct {
	next StateClient
	cb   *gobreaker.CircuitBreaker[any]
}

// BreakerSettings tunes NewBreakerClient. Zero values use the defaults.
type BreakerSettings struct {
	// MinRequests before the failure ratio is considered. Default 10.
	MinRequests uint32
	// FailureRatio that opens the circuit. Default 0.6.
	FailureRatio float64
	// OpenTimeout before probing again. Default 30s.
	OpenTimeout time.Duration
}

func NewBreakerClient(next StateClient, s BreakerSettings) *BreakerClient {
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	const name = "hass-api"
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < s.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= s.FailureRatio
		},
		// A missing entity is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return &BreakerClient{next: next, cb: cb}
}

func (b *BreakerClient) GetState(ctx context.Context, entityID string) (*Entity, error) {
	return call(b.cb, func() (*Entity, error) { return b.next.GetState(ctx, entityID) })
}

func (b *BreakerClient) ListStates(ctx context.Context) ([]Entity, error) {
	return call(b.cb, func() ([]Entity, error) { return b.next.ListStates(ctx) })
}

func (b *BreakerClient) SetState(ctx context.Context, entityID, state string, attrs Attributes) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.next.SetState(ctx, entityID, state, attrs) })
	return err
}

func (b *BreakerClient) DeleteState(ctx context.Context, entityID string) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.next.DeleteState(ctx, entityID) })
	return err
}

// State exposes the breaker state for the status endpoint.
func (b *BreakerClient) State() string { return b.cb.State().String() }

func call[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	res, err := cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		return zero, err
	}
	typed, _ := res.(T)
	return typed, nil
}
