package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

// ErrNotFound is returned by lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

// ErrNotPending is returned by conditional scheduled-message writes
// when the row is missing or has already left the pending state.
var ErrNotPending = errors.New("scheduled message is not pending")

// DataStore defines the interface for persistent storage of users,
// groups, messages and scheduled messages. Both PostgresStore and
// SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, name, email, avatar string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// Direct message operations
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error)
	// UpdateManyMessagesRead flips the read flag on every unread
	// message from senderID to readerID in one batch, returning the
	// number of rows changed.
	UpdateManyMessagesRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error)

	// Group message operations
	SaveGroupMessage(ctx context.Context, msg *models.GroupMessage) error
	GetGroupMessage(ctx context.Context, id string) (*models.GroupMessage, error)
	ListGroupMessages(ctx context.Context, groupID uuid.UUID, limit int) ([]models.GroupMessage, error)

	// ToggleReaction atomically adds or removes the (user, emoji) pair
	// on a message. The reactions table has a unique constraint on
	// (message_id, user_id, emoji), so two racing toggles of the same
	// pair cannot produce a duplicate entry. Returns removed=true when
	// the pair existed and was deleted.
	ToggleReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (removed bool, err error)

	// Group operations
	SaveGroup(ctx context.Context, g *models.Group) error
	FindGroupByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	DeleteGroup(ctx context.Context, id uuid.UUID) error

	// Scheduled message operations
	SaveScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error
	// ReviseScheduledMessage rewrites the payload and fire time of a
	// scheduled message only while its row is still pending. A
	// dispatch cycle can fire between a caller's load and its save, so
	// an unconditional upsert here could flip a terminal status back
	// to pending; the conditional write returns ErrNotPending instead
	// when the row is gone or already dispatched.
	ReviseScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error
	GetScheduledMessage(ctx context.Context, id uuid.UUID) (*models.ScheduledMessage, error)
	// FindDueScheduledMessages returns pending messages with a fire
	// time at or before now, oldest first.
	FindDueScheduledMessages(ctx context.Context, now time.Time) ([]models.ScheduledMessage, error)
	ListScheduledBySender(ctx context.Context, senderID uuid.UUID) ([]models.ScheduledMessage, error)
	// DeleteScheduledMessage cancels a pending scheduled message.
	// Returns ErrNotPending when the row is gone or already
	// dispatched, for the same reason ReviseScheduledMessage does.
	DeleteScheduledMessage(ctx context.Context, id uuid.UUID) error
}
