package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/chat"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/scheduler"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
)

// emailRegex validates email addresses per RFC 5322 (simplified).
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db         store.DataStore
	chat       *chat.Service
	dispatcher *scheduler.Dispatcher
	redis      *store.RedisStore // nil when Redis is not configured
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(db store.DataStore, chatSvc *chat.Service, dispatcher *scheduler.Dispatcher, redis *store.RedisStore) *Handler {
	return &Handler{db: db, chat: chatSvc, dispatcher: dispatcher, redis: redis}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// serviceError maps chat service and store errors onto HTTP statuses.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, chat.ErrEmptyPayload):
		h.Error(w, http.StatusBadRequest, "message has no content")
	case errors.Is(err, chat.ErrNotMember):
		h.Error(w, http.StatusForbidden, "not a member of the group")
	case errors.Is(err, chat.ErrForbidden):
		h.Error(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, chat.ErrAlreadyMember):
		h.Error(w, http.StatusConflict, "user is already a member")
	default:
		h.Error(w, http.StatusInternalServerError, "database error")
	}
}

// sanitizeName trims and limits a user name to 100 runes, removing
// control characters. Truncating on rune boundaries keeps multi-byte
// names valid UTF-8. Group names go through the chat service instead.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	if utf8.RuneCountInString(name) > 100 {
		name = string([]rune(name)[:100])
	}

	return name
}

// isValidEmail validates email addresses using RFC 5322 pattern.
func isValidEmail(email string) bool {
	if email == "" {
		return true // Empty is valid (optional field)
	}
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}
