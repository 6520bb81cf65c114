package handlers

import (
	"net/http"
	"time"

	"github.com/clicknote/clicknote-core/internal/lifecycle"
	"github.com/clicknote/clicknote-core/internal/status"
)

// WSSyncBroadcaster pushes sync cycle events to connected UIs.
type WSSyncBroadcaster interface {
	BroadcastSyncStarted()
	BroadcastSyncCompleted(success bool)
}

// SyncHandler exposes the manual sync trigger and the status snapshot.
type SyncHandler struct {
	manager     *lifecycle.Manager
	broadcaster *status.Broadcaster
	wsHub       WSSyncBroadcaster
}

// NewSyncHandler creates a SyncHandler. wsHub may be nil.
func NewSyncHandler(manager *lifecycle.Manager, broadcaster *status.Broadcaster, wsHub WSSyncBroadcaster) *SyncHandler {
	return &SyncHandler{manager: manager, broadcaster: broadcaster, wsHub: wsHub}
}

// TriggerSync handles POST /api/sync.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.wsHub != nil {
		h.wsHub.BroadcastSyncStarted()
	}
	success := h.manager.SyncNow(r.Context())
	if h.wsHub != nil {
		h.wsHub.BroadcastSyncCompleted(success)
	}

	current := h.broadcaster.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      success,
		"online":       current.Online,
		"pendingCount": current.PendingCount,
	})
}

// Status handles GET /api/status.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	current := h.broadcaster.Current()
	resp := map[string]interface{}{
		"online":       current.Online,
		"pendingCount": current.PendingCount,
	}
	if current.LastSyncedAt != nil {
		resp["lastSyncedAt"] = current.LastSyncedAt.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}
