package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/api/middleware"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

// CreateGroupRequest represents the group creation request body.
type CreateGroupRequest struct {
	Name    string      `json:"name"`
	Members []uuid.UUID `json:"members"`
	Avatar  string      `json:"avatar"`
}

// CreateGroup creates a group with the caller as admin and first
// member.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Group names are sanitized by the chat service, so every entry
	// point shares one rule.
	if strings.TrimSpace(req.Name) == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	group, err := h.chat.CreateGroup(r.Context(), user.ID, req.Name, req.Members, req.Avatar)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, group)
}

// GetGroup returns a group's details. Members only.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid group ID format")
		return
	}

	group, err := h.db.FindGroupByID(r.Context(), groupID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if !group.IsMember(user.ID) {
		h.Error(w, http.StatusForbidden, "not a member of the group")
		return
	}

	h.JSON(w, http.StatusOK, group)
}

// SendGroupMessageRequest represents the group send request body.
type SendGroupMessageRequest struct {
	Payload models.Payload `json:"payload"`
}

// SendGroupMessage persists a message to a group and fans it out to
// every other member's live connection.
func (h *Handler) SendGroupMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid group ID format")
		return
	}

	var req SendGroupMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.chat.SendGroup(r.Context(), user.ID, groupID, req.Payload)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, msg)
}

// ListGroupMessages returns a group's message history. Members only.
func (h *Handler) ListGroupMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid group ID format")
		return
	}

	group, err := h.db.FindGroupByID(r.Context(), groupID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if !group.IsMember(user.ID) {
		h.Error(w, http.StatusForbidden, "not a member of the group")
		return
	}

	limit := defaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	msgs, err := h.db.ListGroupMessages(r.Context(), groupID, limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// AddMemberRequest represents the add member request body.
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// AddMember adds a user to a group. Admin only.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid group ID format")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	group, err := h.chat.AddMember(r.Context(), user.ID, groupID, req.UserID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, group)
}

// RemoveMember removes a user from a group. The admin can remove
// anyone; a member can remove themselves. Removing the last member
// deletes the group.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid group ID format")
		return
	}
	memberID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid user ID format")
		return
	}

	group, err := h.chat.RemoveMember(r.Context(), user.ID, groupID, memberID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if group == nil {
		// Last member left and the group was deleted.
		h.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}

	h.JSON(w, http.StatusOK, group)
}

// UpdateGroupRequest represents the group update request body.
type UpdateGroupRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// UpdateGroup renames a group or changes its avatar. Admin only.
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid group ID format")
		return
	}

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	group, err := h.chat.UpdateGroup(r.Context(), user.ID, groupID, req.Name, req.Avatar)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, group)
}
