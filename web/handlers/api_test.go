package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercore/timeline/internal/config"
	"github.com/evercore/timeline/internal/storage/memory"
	"github.com/evercore/timeline/internal/timeline"
	"github.com/evercore/timeline/pkg/types"
)

func newTestMux(t *testing.T) (*http.ServeMux, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	h := NewAPIHandlers(timeline.NewService(store), cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/timeline/contact/{id}", h.GetContactTimeline)
	mux.HandleFunc("GET /api/timeline/company/{id}", h.GetCompanyTimeline)
	mux.HandleFunc("GET /api/timeline/deal/{id}", h.GetDealTimeline)
	mux.HandleFunc("GET /api/activity/{id}", h.GetActivitySummary)
	mux.HandleFunc("GET /api/engagement/{id}", h.GetEngagementInsights)
	mux.HandleFunc("GET /api/health", h.Health)
	return mux, store
}

func seedContact(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &types.Record{
		ID: "c-1", WorkspaceID: "ws-1", Type: types.KindContact,
		CreatedAt: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Data:      map[string]interface{}{"name": "Ana Silva", "email": "a@x.com"},
	}))
	require.NoError(t, store.Put(ctx, &types.Record{
		ID: "em-1", WorkspaceID: "ws-1", Type: types.KindEmail,
		CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		Data:      map[string]interface{}{"subject": "hello", "to": []interface{}{"a@x.com"}},
	}))
}

func TestGetContactTimeline_OK(t *testing.T) {
	mux, store := newTestMux(t)
	seedContact(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline/contact/c-1?workspace=ws-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TimelineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ws-1", resp.WorkspaceID)
	assert.Equal(t, "c-1", resp.EntityID)
	assert.Equal(t, types.KindContact, resp.EntityKind)
	assert.Equal(t, 2, resp.Total, "one email plus the creation event")
	assert.Len(t, resp.Events, 2)
}

func TestGetContactTimeline_MissingWorkspace(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline/contact/c-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bad Request", resp.Code)
}

func TestGetContactTimeline_UnknownContactIsEmpty(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline/contact/ghost?workspace=ws-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TimelineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Events, "events must serialize as [], not null")
}

func TestGetContactTimeline_KindFilter(t *testing.T) {
	mux, store := newTestMux(t)
	seedContact(t, store)

	req := httptest.NewRequest(http.MethodGet,
		"/api/timeline/contact/c-1?workspace=ws-1&kinds=email", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TimelineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, types.KindEmail, resp.Events[0].Kind)
}

func TestGetContactTimeline_BadStartTime(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/timeline/contact/c-1?workspace=ws-1&start=yesterday", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetActivitySummary_OK(t *testing.T) {
	mux, store := newTestMux(t)
	seedContact(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/activity/c-1?workspace=ws-1&days=30", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.WindowDays)
	assert.NotNil(t, resp.Summary.ByKind)
}

func TestGetEngagementInsights_UnknownEntityIsDefault(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/engagement/ghost?workspace=ws-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp EngagementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.EngagementDormant, resp.Summary.EngagementLevel)
	assert.Equal(t, types.NoContactSentinel, resp.Summary.DaysSinceLastContact)
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestParseFilters_NilWhenUnset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/timeline/contact/c-1?workspace=ws-1", nil)
	filters, err := parseFilters(req)
	require.NoError(t, err)
	assert.Nil(t, filters)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"email", "call"}, splitList("email, call"))
	assert.Nil(t, splitList(" , ,"))
}
