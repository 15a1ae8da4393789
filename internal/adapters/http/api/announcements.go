// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/guessrank/guessrank/internal/domain/dedupe"
	"github.com/guessrank/guessrank/internal/domain/model"
)

// AnnouncementDependencies defines the interface for announcement ingestion.
type AnnouncementDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, a model.Announcement) bool
}

// AnnouncementsHandler handles announcement submissions.
type AnnouncementsHandler struct {
	deps AnnouncementDependencies
}

// NewAnnouncementsHandler creates a new announcements handler.
func NewAnnouncementsHandler(deps AnnouncementDependencies) *AnnouncementsHandler {
	return &AnnouncementsHandler{deps: deps}
}

// HandlePostAnnouncement handles POST /announcements requests.
func (h *AnnouncementsHandler) HandlePostAnnouncement(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_announcement"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req announcementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check, mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), req.MessageID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.toModel()); !ok {
		// Roll back the seen status so a later retry is admitted.
		h.deps.Unrecord(r.Context(), req.MessageID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
