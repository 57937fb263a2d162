package handlers

import (
	"github.com/evercore/timeline/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// TimelineResponse is the response format for GET /api/timeline/{kind}/{id}.
type TimelineResponse struct {
	WorkspaceID string                `json:"workspace_id"`
	EntityID    string                `json:"entity_id"`
	EntityKind  string                `json:"entity_kind"`
	Events      []types.TimelineEvent `json:"events"`
	Total       int                   `json:"total"`
}

// ActivityResponse is the response format for GET /api/activity/{id}.
type ActivityResponse struct {
	WorkspaceID string                `json:"workspace_id"`
	EntityID    string                `json:"entity_id"`
	WindowDays  int                   `json:"window_days"`
	Summary     types.ActivitySummary `json:"summary"`
}

// EngagementResponse is the response format for GET /api/engagement/{id}.
type EngagementResponse struct {
	WorkspaceID string                  `json:"workspace_id"`
	EntityID    string                  `json:"entity_id"`
	Summary     types.EngagementSummary `json:"summary"`
}

// HealthResponse is the response format for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Breaker string `json:"breaker,omitempty"`
}
