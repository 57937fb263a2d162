package timeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/pkg/types"
)

// mentionSearchLimit caps the broad field-level mention query.
const mentionSearchLimit = 1000

// Resolver gathers the candidate records for a subject entity through
// multiple discovery strategies and merges them into a unique set.
//
// Independent store queries are issued concurrently, but results are
// always joined in a fixed concatenation order (relationship-linked
// records first, then mention-search records) before deduplication, so
// the outcome does not depend on which query returns first.
type Resolver struct {
	store storage.EntityStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store storage.EntityStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveContact returns the unique set of records related to the contact:
// records linked through explicit relationship edges, unioned with records
// that mention the contact through metadata back-references, data-level id
// references, or the contact's email address in participant-style fields.
func (r *Resolver) ResolveContact(ctx context.Context, workspaceID string, contact *types.Record) ([]*types.Record, error) {
	var related, mentioned []*types.Record
	var relatedErr, mentionedErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		related, relatedErr = r.store.FindRelated(ctx, workspaceID, contact.ID)
	}()
	go func() {
		defer wg.Done()
		mentioned, mentionedErr = r.store.Find(ctx, mentionQuery(workspaceID, contact))
	}()
	wg.Wait()

	// A cancelled request never surfaces partial results.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if relatedErr != nil {
		return nil, fmt.Errorf("failed to resolve related records for %s: %w", contact.ID, relatedErr)
	}
	if mentionedErr != nil {
		return nil, fmt.Errorf("failed to resolve mentions of %s: %w", contact.ID, mentionedErr)
	}

	return dedupeRecords(contact.ID, related, mentioned), nil
}

// ResolveCompany returns the unique record set for a company: the
// company's own related and mentioning records, expanded with the
// resolved set of every contact whose data.companyId matches the company.
// Per-contact resolves run concurrently; concatenation follows the
// contact query order.
func (r *Resolver) ResolveCompany(ctx context.Context, workspaceID string, company *types.Record) ([]*types.Record, error) {
	own, err := r.ResolveContact(ctx, workspaceID, company)
	if err != nil {
		return nil, err
	}

	contacts, err := r.store.Find(ctx, storage.Query{
		WorkspaceID: workspaceID,
		Where: []storage.Predicate{
			{Field: "type", Op: storage.OpEqual, Value: types.KindContact},
			{Field: "data.companyId", Op: storage.OpEqual, Value: company.ID},
		},
		Limit: mentionSearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts of company %s: %w", company.ID, err)
	}

	perContact := make([][]*types.Record, len(contacts))
	errs := make([]error, len(contacts))

	var wg sync.WaitGroup
	for i, contact := range contacts {
		wg.Add(1)
		go func(i int, contact *types.Record) {
			defer wg.Done()
			perContact[i], errs[i] = r.ResolveContact(ctx, workspaceID, contact)
		}(i, contact)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sets := make([][]*types.Record, 0, len(contacts)+1)
	sets = append(sets, own)
	sets = append(sets, perContact...)
	return dedupeRecords(company.ID, sets...), nil
}

// ResolveDeal returns the unique set of records linked to the deal.
// Synthetic creation and stage-history events are the assembler's job.
func (r *Resolver) ResolveDeal(ctx context.Context, workspaceID string, deal *types.Record) ([]*types.Record, error) {
	related, err := r.store.FindRelated(ctx, workspaceID, deal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve related records for deal %s: %w", deal.ID, err)
	}
	return dedupeRecords(deal.ID, related), nil
}

// mentionQuery builds the broad discovery query for a subject record: any
// metadata back-reference, data-level id reference, or (when the subject
// has an email address) that address appearing in a participant-style
// field.
func mentionQuery(workspaceID string, subject *types.Record) storage.Query {
	idField := subject.Type + "Id" // contactId, companyId, dealId

	or := []storage.Predicate{
		{Field: "metadata." + idField, Op: storage.OpEqual, Value: subject.ID},
		{Field: "data." + idField, Op: storage.OpEqual, Value: subject.ID},
	}

	if email := subject.DataString("email"); email != "" {
		for _, field := range []string{"participants", "attendees", "to", "from", "cc", "bcc"} {
			or = append(or, storage.Predicate{
				Field: "data." + field,
				Op:    storage.OpContains,
				Value: email,
			})
		}
	}

	return storage.Query{
		WorkspaceID: workspaceID,
		Where:       []storage.Predicate{{Or: or}},
		Limit:       mentionSearchLimit,
	}
}

// dedupeRecords concatenates the given sets in order and keeps the first
// occurrence of each record id. When two discovery strategies return the
// same id, the earlier set's snapshot wins; the subject's own record is
// excluded so an entity never appears on its own timeline as a plain
// record.
func dedupeRecords(subjectID string, sets ...[]*types.Record) []*types.Record {
	seen := make(map[string]bool)
	unique := make([]*types.Record, 0)

	for _, set := range sets {
		for _, record := range set {
			if record == nil || record.ID == subjectID || seen[record.ID] {
				continue
			}
			seen[record.ID] = true
			unique = append(unique, record)
		}
	}
	return unique
}
