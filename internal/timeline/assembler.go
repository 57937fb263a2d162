package timeline

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/pkg/types"
)

// Service assembles timelines and computes engagement analytics for
// contacts, companies, and deals. It holds no state beyond the store
// handle; every call is independent.
type Service struct {
	store    storage.EntityStore
	resolver *Resolver

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a timeline service over the given store.
func NewService(store storage.EntityStore) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		now:      time.Now,
	}
}

// GetContactTimeline assembles the filtered, time-descending event stream
// for a contact. A missing contact yields an empty timeline, not an error.
func (s *Service) GetContactTimeline(ctx context.Context, workspaceID, contactID string, filters *types.TimelineFilters) ([]types.TimelineEvent, error) {
	contact, err := s.store.FindByID(ctx, workspaceID, contactID)
	if errors.Is(err, storage.ErrNotFound) {
		return []types.TimelineEvent{}, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := s.resolver.ResolveContact(ctx, workspaceID, contact)
	if err != nil {
		return nil, err
	}

	subject := subjectFromRecord(contact)
	events := transformAll(records, subject)
	events = append(events, contactLifecycleEvents(contact)...)

	return finishTimeline(events, filters), nil
}

// GetCompanyTimeline assembles the filtered event stream for a company,
// spanning the company's own records and those of all its contacts.
func (s *Service) GetCompanyTimeline(ctx context.Context, workspaceID, companyID string, filters *types.TimelineFilters) ([]types.TimelineEvent, error) {
	company, err := s.store.FindByID(ctx, workspaceID, companyID)
	if errors.Is(err, storage.ErrNotFound) {
		return []types.TimelineEvent{}, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := s.resolver.ResolveCompany(ctx, workspaceID, company)
	if err != nil {
		return nil, err
	}

	events := transformAll(records, subjectFromRecord(company))
	return finishTimeline(events, filters), nil
}

// GetDealTimeline assembles the filtered event stream for a deal,
// including its synthetic creation and stage-history events.
func (s *Service) GetDealTimeline(ctx context.Context, workspaceID, dealID string, filters *types.TimelineFilters) ([]types.TimelineEvent, error) {
	deal, err := s.store.FindByID(ctx, workspaceID, dealID)
	if errors.Is(err, storage.ErrNotFound) {
		return []types.TimelineEvent{}, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := s.resolver.ResolveDeal(ctx, workspaceID, deal)
	if err != nil {
		return nil, err
	}

	events := transformAll(records, subjectFromRecord(deal))
	events = append(events, dealLifecycleEvents(deal)...)

	return finishTimeline(events, filters), nil
}

// timelineByKind assembles the timeline appropriate to the entity's own
// type. Unrecognized entity types yield an empty timeline.
func (s *Service) timelineByKind(ctx context.Context, workspaceID string, entity *types.Record) ([]types.TimelineEvent, error) {
	switch entity.Type {
	case types.KindContact:
		return s.GetContactTimeline(ctx, workspaceID, entity.ID, nil)
	case types.KindCompany:
		return s.GetCompanyTimeline(ctx, workspaceID, entity.ID, nil)
	case types.KindDeal:
		return s.GetDealTimeline(ctx, workspaceID, entity.ID, nil)
	default:
		return []types.TimelineEvent{}, nil
	}
}

// transformAll normalizes every resolved record. The output order mirrors
// the input order, which the final stable sort uses as its tiebreak.
func transformAll(records []*types.Record, subject *Subject) []types.TimelineEvent {
	events := make([]types.TimelineEvent, 0, len(records)+2)
	for _, record := range records {
		events = append(events, Transform(record, subject))
	}
	return events
}

// finishTimeline applies filters and the descending time sort.
func finishTimeline(events []types.TimelineEvent, filters *types.TimelineFilters) []types.TimelineEvent {
	filtered := make([]types.TimelineEvent, 0, len(events))
	for i := range events {
		if filters.Matches(&events[i]) {
			filtered = append(filtered, events[i])
		}
	}

	// Stable: ties preserve resolver-then-synthetic order.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	return filtered
}

// subjectFromRecord builds the transformation context from the target
// entity's record.
func subjectFromRecord(record *types.Record) *Subject {
	return &Subject{
		ID:    record.ID,
		Type:  record.Type,
		Email: record.DataString("email"),
		Name:  record.DataString("name"),
	}
}

// contactLifecycleEvents injects the contact's synthetic events: always a
// creation event, plus an enrichment event when the contact carries an
// enrichedAt timestamp.
func contactLifecycleEvents(contact *types.Record) []types.TimelineEvent {
	name := contact.DataString("name")
	if name == "" {
		name = contact.ID
	}

	events := []types.TimelineEvent{{
		ID:        contact.ID + "-created",
		Kind:      types.KindContactCreated,
		Module:    types.ModuleForKind(types.KindContactCreated),
		Timestamp: contact.CreatedAt,
		Title:     "Contact created",
		Description: name + " was added",
		Icon:      "user-plus",
		Color:     "#22C55E",
		Metadata:  map[string]interface{}{"entityType": types.KindContactCreated},
	}}

	enrichedAt, ok := parseTimeValue(contact.Data["enrichedAt"])
	if !ok {
		enrichedAt, ok = parseTimeValue(contact.Metadata["enrichedAt"])
	}
	if ok {
		events = append(events, types.TimelineEvent{
			ID:        contact.ID + "-enriched",
			Kind:      types.KindContactEnriched,
			Module:    types.ModuleForKind(types.KindContactEnriched),
			Timestamp: enrichedAt,
			Title:     "Contact enriched",
			Description: "Profile data was enriched from external sources",
			Icon:      "sparkles",
			Color:     "#8B5CF6",
			Metadata:  map[string]interface{}{"entityType": types.KindContactEnriched},
		})
	}

	return events
}

// dealLifecycleEvents injects the deal's synthetic events: a creation
// event at the deal's creation time, plus one stage-change event per
// recorded stageHistory transition.
func dealLifecycleEvents(deal *types.Record) []types.TimelineEvent {
	name := deal.DataString("name")
	if name == "" {
		name = deal.ID
	}

	events := []types.TimelineEvent{{
		ID:        deal.ID + "-created",
		Kind:      types.KindDealCreated,
		Module:    types.ModuleForKind(types.KindDealCreated),
		Timestamp: deal.CreatedAt,
		Title:     "Deal created",
		Description: name + " was opened",
		Icon:      "plus-circle",
		Color:     "#6366F1",
		Metadata:  map[string]interface{}{"entityType": types.KindDealCreated},
	}}

	history, _ := deal.Data["stageHistory"].([]interface{})
	for i, raw := range history {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		stage, _ := entry["stage"].(string)
		fromStage, _ := entry["fromStage"].(string)
		timestamp, ok := parseTimeValue(entry["timestamp"])
		if !ok {
			timestamp = deal.CreatedAt
		}

		ev := types.TimelineEvent{
			ID:        deal.ID + "-stage-" + strconv.Itoa(i),
			Kind:      types.KindDealChange,
			Module:    types.ModuleForKind(types.KindDealChange),
			Timestamp: timestamp,
			Title:     "Stage changed to " + types.TitleCaseKind(stage),
			Icon:      "trending-up",
			Color:     "#F59E0B",
			Metadata: map[string]interface{}{
				"entityType": types.KindDealChange,
				"stage":      stage,
			},
		}
		if fromStage != "" {
			ev.Description = "Moved from " + types.TitleCaseKind(fromStage)
			ev.Metadata["fromStage"] = fromStage
		}
		events = append(events, ev)
	}

	return events
}
