package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/api/middleware"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

const defaultConversationLimit = 50

// SendMessageRequest represents the direct send request body.
type SendMessageRequest struct {
	ReceiverID uuid.UUID      `json:"receiver_id"`
	Payload    models.Payload `json:"payload"`
}

// SendMessage persists a direct message and fans it out to the
// recipient's live connection if one exists.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sender := middleware.GetUserFromContext(r.Context())
	if sender == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ReceiverID == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "receiver_id is required")
		return
	}

	msg, err := h.chat.SendDirect(r.Context(), sender.ID, req.ReceiverID, req.Payload)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, msg)
}

// ListConversation returns the direct message history with a peer,
// newest last.
func (h *Handler) ListConversation(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	peerID, err := uuid.Parse(chi.URLParam(r, "peerID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid peer ID format")
		return
	}

	limit := defaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	msgs, err := h.db.ListConversation(r.Context(), user.ID, peerID, limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// MarkReadResponse reports how many messages a read receipt covered.
type MarkReadResponse struct {
	Updated bool `json:"updated"`
}

// MarkRead marks every unread message from the peer as read and
// notifies the peer's live connection.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	peerID, err := uuid.Parse(chi.URLParam(r, "peerID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid peer ID format")
		return
	}

	if err := h.chat.MarkRead(r.Context(), user.ID, peerID); err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, MarkReadResponse{Updated: true})
}
