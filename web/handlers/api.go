// Package handlers provides the HTTP handlers and middleware for the
// timeline service API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evercore/timeline/internal/config"
	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/internal/timeline"
	"github.com/evercore/timeline/pkg/types"
)

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	service *timeline.Service
	config  *config.Config

	// breakerState reports the circuit breaker state for /api/health;
	// nil when the breaker is disabled.
	breakerState func() string
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(service *timeline.Service, cfg *config.Config) *APIHandlers {
	return &APIHandlers{
		service: service,
		config:  cfg,
	}
}

// SetBreakerState wires the circuit breaker state probe used by the
// health endpoint.
func (h *APIHandlers) SetBreakerState(probe func() string) {
	h.breakerState = probe
}

// GetContactTimeline handles GET /api/timeline/contact/{id}.
func (h *APIHandlers) GetContactTimeline(w http.ResponseWriter, r *http.Request) {
	h.serveTimeline(w, r, types.KindContact, h.service.GetContactTimeline)
}

// GetCompanyTimeline handles GET /api/timeline/company/{id}.
func (h *APIHandlers) GetCompanyTimeline(w http.ResponseWriter, r *http.Request) {
	h.serveTimeline(w, r, types.KindCompany, h.service.GetCompanyTimeline)
}

// GetDealTimeline handles GET /api/timeline/deal/{id}.
func (h *APIHandlers) GetDealTimeline(w http.ResponseWriter, r *http.Request) {
	h.serveTimeline(w, r, types.KindDeal, h.service.GetDealTimeline)
}

// timelineFunc is the shape shared by the three assembly operations.
type timelineFunc func(ctx context.Context, workspaceID, entityID string, filters *types.TimelineFilters) ([]types.TimelineEvent, error)

func (h *APIHandlers) serveTimeline(w http.ResponseWriter, r *http.Request, entityKind string, assemble timelineFunc) {
	workspaceID := r.URL.Query().Get("workspace")
	if workspaceID == "" {
		respondError(w, http.StatusBadRequest, "workspace query parameter is required", nil)
		return
	}
	entityID := r.PathValue("id")
	if entityID == "" {
		respondError(w, http.StatusBadRequest, "entity id is required", nil)
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid filters", err)
		return
	}

	events, err := assemble(r.Context(), workspaceID, entityID, filters)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, TimelineResponse{
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		EntityKind:  entityKind,
		Events:      events,
		Total:       len(events),
	})
}

// GetActivitySummary handles GET /api/activity/{id}.
func (h *APIHandlers) GetActivitySummary(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace")
	if workspaceID == "" {
		respondError(w, http.StatusBadRequest, "workspace query parameter is required", nil)
		return
	}
	entityID := r.PathValue("id")

	days := parseInt(r.URL.Query().Get("days"), h.config.Analytics.WindowDays)
	if days <= 0 {
		days = h.config.Analytics.WindowDays
	}

	summary, err := h.service.GetActivitySummary(r.Context(), workspaceID, entityID, days)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ActivityResponse{
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		WindowDays:  days,
		Summary:     *summary,
	})
}

// GetEngagementInsights handles GET /api/engagement/{id}.
func (h *APIHandlers) GetEngagementInsights(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace")
	if workspaceID == "" {
		respondError(w, http.StatusBadRequest, "workspace query parameter is required", nil)
		return
	}
	entityID := r.PathValue("id")

	summary, err := h.service.GetEngagementInsights(r.Context(), workspaceID, entityID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, EngagementResponse{
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		Summary:     *summary,
	})
}

// Health handles GET /api/health.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Store:  h.config.Storage.Engine,
	}
	if h.breakerState != nil {
		resp.Breaker = h.breakerState()
	}
	respondJSON(w, http.StatusOK, resp)
}

// parseFilters builds TimelineFilters from the request's query parameters:
// kinds and participants are comma-separated lists, start/end bound the
// date range (RFC3339), q is the free-text search.
func parseFilters(r *http.Request) (*types.TimelineFilters, error) {
	q := r.URL.Query()

	filters := &types.TimelineFilters{
		Kinds:        splitList(q.Get("kinds")),
		Participants: splitList(q.Get("participants")),
		SearchQuery:  q.Get("q"),
	}

	startRaw, endRaw := q.Get("start"), q.Get("end")
	if startRaw != "" || endRaw != "" {
		dr := &types.DateRange{}
		if startRaw != "" {
			start, err := time.Parse(time.RFC3339, startRaw)
			if err != nil {
				return nil, fmt.Errorf("invalid start time %q: %w", startRaw, err)
			}
			dr.Start = start
		}
		if endRaw != "" {
			end, err := time.Parse(time.RFC3339, endRaw)
			if err != nil {
				return nil, fmt.Errorf("invalid end time %q: %w", endRaw, err)
			}
			dr.End = end
		}
		filters.DateRange = dr
	}

	if filters.Kinds == nil && filters.Participants == nil &&
		filters.SearchQuery == "" && filters.DateRange == nil {
		return nil, nil
	}
	return filters, nil
}

// splitList splits a comma-separated query value, trimming whitespace and
// dropping empty entries.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// respondStoreError maps store-layer failures to HTTP status codes.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrCircuitOpen):
		respondError(w, http.StatusServiceUnavailable, "store temporarily unavailable", err)
	case errors.Is(err, storage.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid request", err)
	default:
		respondError(w, http.StatusInternalServerError, "failed to assemble timeline", err)
	}
}

// parseInt parses a query parameter with a default.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing more we can do.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
