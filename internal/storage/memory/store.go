// Package memory provides a map-backed EntityStore implementation.
// It is the default zero-configuration backend and the fixture store used
// throughout the engine's tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/pkg/types"
)

// Store implements storage.EntityStore and storage.Writer in memory.
// Records are kept per workspace in insertion order, which gives Find a
// stable secondary order under equal created_at timestamps.
type Store struct {
	mu sync.RWMutex

	// records maps workspaceID → recordID → record.
	records map[string]map[string]*types.Record

	// order preserves insertion order of record IDs per workspace.
	order map[string][]string

	// links maps workspaceID → recordID → linked record IDs.
	links map[string]map[string][]string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]map[string]*types.Record),
		order:   make(map[string][]string),
		links:   make(map[string]map[string][]string),
	}
}

// Put creates or replaces a record (upsert semantics).
func (s *Store) Put(ctx context.Context, record *types.Record) error {
	if record == nil || record.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws := record.WorkspaceID
	if s.records[ws] == nil {
		s.records[ws] = make(map[string]*types.Record)
	}
	if _, exists := s.records[ws][record.ID]; !exists {
		s.order[ws] = append(s.order[ws], record.ID)
	}
	s.records[ws][record.ID] = record
	return nil
}

// Link creates a bidirectional relationship edge between two records.
func (s *Store) Link(ctx context.Context, workspaceID, fromID, toID string) error {
	if fromID == "" || toID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.links[workspaceID] == nil {
		s.links[workspaceID] = make(map[string][]string)
	}
	s.links[workspaceID][fromID] = appendUnique(s.links[workspaceID][fromID], toID)
	s.links[workspaceID][toID] = appendUnique(s.links[workspaceID][toID], fromID)
	return nil
}

// FindByID implements storage.EntityStore.
func (s *Store) FindByID(ctx context.Context, workspaceID, id string) (*types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[workspaceID][id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// FindRelated implements storage.EntityStore. Linked records are returned
// in link creation order.
func (s *Store) FindRelated(ctx context.Context, workspaceID, id string) ([]*types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	related := make([]*types.Record, 0)
	for _, linkedID := range s.links[workspaceID][id] {
		if record, ok := s.records[workspaceID][linkedID]; ok {
			related = append(related, record)
		}
	}
	return related, nil
}

// Find implements storage.EntityStore. Records are matched in insertion
// order, then sorted by created_at per the query, then truncated to the
// query limit.
func (s *Store) Find(ctx context.Context, query storage.Query) ([]*types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*types.Record, 0)
	for _, id := range s.order[query.WorkspaceID] {
		record := s.records[query.WorkspaceID][id]
		if storage.MatchesAll(record, query.Where) {
			matched = append(matched, record)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if query.OrderDirection == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

// Close implements storage.EntityStore.
func (s *Store) Close() error {
	return nil
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
