package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/api/middleware"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
)

// CreateScheduledRequest represents the schedule request body. Exactly
// one of receiver_id or group_id must be set.
type CreateScheduledRequest struct {
	ReceiverID   *uuid.UUID     `json:"receiver_id,omitempty"`
	GroupID      *uuid.UUID     `json:"group_id,omitempty"`
	Payload      models.Payload `json:"payload"`
	ScheduledFor time.Time      `json:"scheduled_for"`
}

// CreateScheduled stores a message for future dispatch.
func (h *Handler) CreateScheduled(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateScheduledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if (req.ReceiverID == nil) == (req.GroupID == nil) {
		h.Error(w, http.StatusBadRequest, "exactly one of receiver_id or group_id is required")
		return
	}
	if req.Payload.Empty() {
		h.Error(w, http.StatusBadRequest, "message has no content")
		return
	}
	if req.ScheduledFor.IsZero() {
		h.Error(w, http.StatusBadRequest, "scheduled_for is required")
		return
	}

	// Validate the target up front; the dispatcher re-validates at
	// fire time since membership can change in between.
	if req.ReceiverID != nil {
		if _, err := h.db.FindUserByID(r.Context(), *req.ReceiverID); err != nil {
			h.serviceError(w, err)
			return
		}
	} else {
		group, err := h.db.FindGroupByID(r.Context(), *req.GroupID)
		if err != nil {
			h.serviceError(w, err)
			return
		}
		if !group.IsMember(user.ID) {
			h.Error(w, http.StatusForbidden, "not a member of the group")
			return
		}
	}

	now := time.Now().UTC()
	m := &models.ScheduledMessage{
		ID:           uuid.New(),
		SenderID:     user.ID,
		ReceiverID:   req.ReceiverID,
		GroupID:      req.GroupID,
		Payload:      req.Payload,
		ScheduledFor: req.ScheduledFor.UTC(),
		Status:       models.ScheduledStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.db.SaveScheduledMessage(r.Context(), m); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to schedule message")
		return
	}

	h.JSON(w, http.StatusCreated, m)
}

// ListScheduled returns the caller's scheduled messages, all statuses.
func (h *Handler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	msgs, err := h.db.ListScheduledBySender(r.Context(), user.ID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"scheduled": msgs})
}

// UpdateScheduledRequest represents the reschedule request body.
type UpdateScheduledRequest struct {
	Payload      *models.Payload `json:"payload,omitempty"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
}

// UpdateScheduled edits a pending scheduled message. Owner only; a
// message that already fired is immutable.
func (h *Handler) UpdateScheduled(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	m, ok := h.ownedPending(w, r, user.ID)
	if !ok {
		return
	}

	var req UpdateScheduledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Payload != nil {
		if req.Payload.Empty() {
			h.Error(w, http.StatusBadRequest, "message has no content")
			return
		}
		m.Payload = *req.Payload
	}
	if req.ScheduledFor != nil {
		m.ScheduledFor = req.ScheduledFor.UTC()
	}
	m.UpdatedAt = time.Now().UTC()

	// Conditional write: a dispatch cycle may have fired this message
	// between the load above and now, and a terminal status must never
	// be flipped back to pending by a stale copy.
	if err := h.db.ReviseScheduledMessage(r.Context(), m); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			h.Error(w, http.StatusConflict, "scheduled message already dispatched")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to update scheduled message")
		return
	}

	h.JSON(w, http.StatusOK, m)
}

// DeleteScheduled cancels a pending scheduled message. Owner only.
func (h *Handler) DeleteScheduled(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	m, ok := h.ownedPending(w, r, user.ID)
	if !ok {
		return
	}

	if err := h.db.DeleteScheduledMessage(r.Context(), m.ID); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			h.Error(w, http.StatusConflict, "scheduled message already dispatched")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to delete scheduled message")
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// SchedulerStatus reports the dispatch loop's state.
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.dispatcher.Status())
}

// TriggerDispatch runs a dispatch cycle immediately. Returns the
// cycle's stats; if a cycle was already running the stats report a
// skip.
func (h *Handler) TriggerDispatch(w http.ResponseWriter, r *http.Request) {
	stats := h.dispatcher.TriggerNow(r.Context())
	h.JSON(w, http.StatusOK, stats)
}

// ownedPending loads the scheduled message from the URL and enforces
// ownership and pending status, writing the error response itself.
func (h *Handler) ownedPending(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.ScheduledMessage, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid scheduled message ID format")
		return nil, false
	}

	m, err := h.db.GetScheduledMessage(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return nil, false
	}
	if m.SenderID != userID {
		h.Error(w, http.StatusForbidden, "not allowed")
		return nil, false
	}
	if m.Terminal() {
		h.Error(w, http.StatusConflict, "scheduled message already dispatched")
		return nil, false
	}
	return m, true
}
