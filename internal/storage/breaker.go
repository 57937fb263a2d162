package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/evercore/timeline/pkg/types"
)

// ErrCircuitOpen is returned when the circuit breaker is in open state
// and rejects requests to prevent cascading failures.
var ErrCircuitOpen = errors.New("entity store circuit breaker is open")

// BreakerConfig holds the configuration for the store circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures required to trip
	// the circuit. Default: 3
	MaxFailures uint32

	// Timeout is the duration the circuit stays open before transitioning
	// to half-open. Default: 30 seconds
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of consecutive successes required
	// in half-open state to close the circuit again. Default: 2
	HalfOpenMaxSuccesses uint32
}

// BreakerStore wraps an EntityStore with a circuit breaker so that a
// failing backend degrades into fast rejections instead of piling up
// blocked timeline requests.
//
// ErrNotFound does not count as a failure: a missing record is a normal
// data condition, not a backend fault.
type BreakerStore struct {
	inner   EntityStore
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps store with default breaker settings
// (3 consecutive failures trip, 30s open, 2 successes to close).
func NewBreakerStore(store EntityStore) *BreakerStore {
	return NewBreakerStoreWithConfig(store, BreakerConfig{
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 2,
	})
}

// NewBreakerStoreWithConfig wraps store with custom breaker settings.
func NewBreakerStoreWithConfig(store EntityStore, config BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        "EntityStoreBreaker",
		MaxRequests: config.HalfOpenMaxSuccesses,
		Interval:    0, // Don't clear counts periodically
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}

	return &BreakerStore{
		inner:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// FindByID implements EntityStore.
func (s *BreakerStore) FindByID(ctx context.Context, workspaceID, id string) (*types.Record, error) {
	result, err := s.execute(ctx, func() (interface{}, error) {
		return s.inner.FindByID(ctx, workspaceID, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.Record), nil
}

// FindRelated implements EntityStore.
func (s *BreakerStore) FindRelated(ctx context.Context, workspaceID, id string) ([]*types.Record, error) {
	result, err := s.execute(ctx, func() (interface{}, error) {
		return s.inner.FindRelated(ctx, workspaceID, id)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.Record), nil
}

// Find implements EntityStore.
func (s *BreakerStore) Find(ctx context.Context, query Query) ([]*types.Record, error) {
	result, err := s.execute(ctx, func() (interface{}, error) {
		return s.inner.Find(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.Record), nil
}

// Close implements EntityStore. Close bypasses the breaker.
func (s *BreakerStore) Close() error {
	return s.inner.Close()
}

// State returns the current breaker state: "closed", "open", or "half-open".
func (s *BreakerStore) State() string {
	switch s.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// execute runs fn through the breaker with a context pre-check.
func (s *BreakerStore) execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return result, err
}
