package handlers

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/api/middleware"
)

// ToggleReactionRequest represents the reaction toggle request body.
type ToggleReactionRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// ToggleReaction adds the caller's (emoji) reaction to a message, or
// removes it if already present. The delta is pushed to the other
// conversation participants.
func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MessageID == "" {
		h.Error(w, http.StatusBadRequest, "message_id is required")
		return
	}
	if req.Emoji == "" || utf8.RuneCountInString(req.Emoji) > 8 {
		h.Error(w, http.StatusBadRequest, "emoji is required")
		return
	}

	result, err := h.chat.ToggleReaction(r.Context(), user.ID, req.MessageID, req.Emoji)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, result)
}
