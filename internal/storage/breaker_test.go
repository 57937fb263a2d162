package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercore/timeline/pkg/types"
)

// flakyStore fails every call until healed.
type flakyStore struct {
	failing bool
	calls   int
}

var errBackendDown = errors.New("backend down")

func (s *flakyStore) FindByID(ctx context.Context, workspaceID, id string) (*types.Record, error) {
	s.calls++
	if s.failing {
		return nil, errBackendDown
	}
	if id == "missing" {
		return nil, ErrNotFound
	}
	return &types.Record{ID: id, WorkspaceID: workspaceID, Type: "contact"}, nil
}

func (s *flakyStore) FindRelated(ctx context.Context, workspaceID, id string) ([]*types.Record, error) {
	s.calls++
	if s.failing {
		return nil, errBackendDown
	}
	return []*types.Record{}, nil
}

func (s *flakyStore) Find(ctx context.Context, query Query) ([]*types.Record, error) {
	s.calls++
	if s.failing {
		return nil, errBackendDown
	}
	return []*types.Record{}, nil
}

func (s *flakyStore) Close() error { return nil }

func TestBreakerStore_PassesThroughWhenHealthy(t *testing.T) {
	inner := &flakyStore{}
	store := NewBreakerStore(inner)

	record, err := store.FindByID(context.Background(), "ws-1", "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, "closed", store.State())
}

func TestBreakerStore_TripsAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyStore{failing: true}
	store := NewBreakerStoreWithConfig(inner, BreakerConfig{
		MaxFailures:          3,
		Timeout:              time.Minute,
		HalfOpenMaxSuccesses: 1,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.FindByID(ctx, "ws-1", "rec-1")
		assert.ErrorIs(t, err, errBackendDown)
	}

	assert.Equal(t, "open", store.State())

	// Open circuit rejects without touching the backend.
	callsBefore := inner.calls
	_, err := store.FindByID(ctx, "ws-1", "rec-1")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, callsBefore, inner.calls)
}

func TestBreakerStore_NotFoundIsNotAFailure(t *testing.T) {
	inner := &flakyStore{}
	store := NewBreakerStoreWithConfig(inner, BreakerConfig{
		MaxFailures:          2,
		Timeout:              time.Minute,
		HalfOpenMaxSuccesses: 1,
	})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := store.FindByID(ctx, "ws-1", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, "closed", store.State())
}

func TestBreakerStore_CancelledContext(t *testing.T) {
	inner := &flakyStore{}
	store := NewBreakerStore(inner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Find(ctx, Query{WorkspaceID: "ws-1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inner.calls)
}
