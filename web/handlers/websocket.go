package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/evercore/timeline/pkg/types"
)

// watchPollInterval is how often a watch connection re-assembles the
// timeline to look for new events.
const watchPollInterval = 5 * time.Second

// WatchMessage is one websocket frame pushed to a timeline watcher.
type WatchMessage struct {
	Type      string                `json:"type"` // "snapshot" or "delta"
	SessionID string                `json:"session_id"`
	EntityID  string                `json:"entity_id"`
	Events    []types.TimelineEvent `json:"events"`
	SentAt    time.Time             `json:"sent_at"`
}

// WatchTimeline handles GET /api/timeline/{kind}/{id}/watch. It upgrades
// to a websocket, sends the current timeline as a snapshot, then polls the
// store and pushes only events the session has not yet seen.
func (h *APIHandlers) WatchTimeline(kind string, assemble timelineFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID := r.URL.Query().Get("workspace")
		if workspaceID == "" {
			respondError(w, http.StatusBadRequest, "workspace query parameter is required", nil)
			return
		}
		entityID := r.PathValue("id")

		conn, err := websocket.Accept(w, r, nil) //nolint:staticcheck
		if err != nil {
			log.Printf("websocket accept failed: %v", err)
			return
		}

		sessionID := uuid.New().String()
		log.Printf("timeline watch started: session=%s %s/%s", sessionID, kind, entityID)

		ctx := r.Context()
		defer func() {
			_ = conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck
			log.Printf("timeline watch ended: session=%s", sessionID)
		}()

		seen := make(map[string]time.Time)

		send := func(msgType string, events []types.TimelineEvent) error {
			msg := WatchMessage{
				Type:      msgType,
				SessionID: sessionID,
				EntityID:  entityID,
				Events:    events,
				SentAt:    time.Now().UTC(),
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return conn.Write(writeCtx, websocket.MessageText, data) //nolint:staticcheck
		}

		events, err := assemble(ctx, workspaceID, entityID, nil)
		if err != nil {
			log.Printf("watch session %s: initial assembly failed: %v", sessionID, err)
			_ = conn.Close(websocket.StatusInternalError, "assembly failed") //nolint:staticcheck
			return
		}
		for _, ev := range events {
			seen[ev.ID] = ev.Timestamp
		}
		if err := send("snapshot", events); err != nil {
			return
		}

		ticker := time.NewTicker(watchPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			events, err := assemble(ctx, workspaceID, entityID, nil)
			if err != nil {
				log.Printf("watch session %s: poll failed: %v", sessionID, err)
				continue
			}

			fresh := make([]types.TimelineEvent, 0)
			for _, ev := range events {
				if prev, ok := seen[ev.ID]; ok && prev.Equal(ev.Timestamp) {
					continue
				}
				seen[ev.ID] = ev.Timestamp
				fresh = append(fresh, ev)
			}
			if len(fresh) == 0 {
				continue
			}
			if err := send("delta", fresh); err != nil {
				return
			}
		}
	}
}
