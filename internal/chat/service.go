package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/metrics"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/realtime"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
)

var (
	// ErrEmptyPayload rejects messages with no content at all.
	ErrEmptyPayload = errors.New("message has no content")
	// ErrNotMember rejects group operations by non-members.
	ErrNotMember = errors.New("user is not a member of the group")
	// ErrForbidden rejects operations by users without the right role.
	ErrForbidden = errors.New("operation not allowed")
)

// Service implements the messaging operations: persist first, then
// fan out over live connections. Persistence failures are surfaced to
// the caller; delivery to offline or dying connections is not an
// error.
type Service struct {
	store    store.DataStore
	notifier *realtime.Notifier
	logger   zerolog.Logger
}

// NewService creates a chat Service.
func NewService(st store.DataStore, notifier *realtime.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		logger:   logger.With().Str("component", "chat").Logger(),
	}
}

// SendDirect persists a direct message and pushes it to the recipient
// if online. The returned message carries the server-assigned id and
// timestamp.
func (s *Service) SendDirect(ctx context.Context, senderID, receiverID uuid.UUID, payload models.Payload) (*models.Message, error) {
	if payload.Empty() {
		return nil, ErrEmptyPayload
	}
	if _, err := s.store.FindUserByID(ctx, receiverID); err != nil {
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}

	msg := &models.Message{
		ID:         ulid.Make().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Payload:    payload,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	metrics.MessagesSent.WithLabelValues("direct").Inc()

	s.notifier.DeliverDirect(msg)
	return msg, nil
}

// SendGroup persists a group message and pushes it to every online
// member except the sender.
func (s *Service) SendGroup(ctx context.Context, senderID, groupID uuid.UUID, payload models.Payload) (*models.GroupMessage, error) {
	if payload.Empty() {
		return nil, ErrEmptyPayload
	}
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	if !group.IsMember(senderID) {
		return nil, ErrNotMember
	}

	msg := &models.GroupMessage{
		ID:        ulid.Make().String(),
		GroupID:   groupID,
		SenderID:  senderID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveGroupMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save group message: %w", err)
	}
	metrics.MessagesSent.WithLabelValues("group").Inc()

	s.notifier.DeliverGroup(msg, group)
	return msg, nil
}

// ToggleResult reports the outcome of a reaction toggle.
type ToggleResult struct {
	Removed  bool             `json:"removed"`
	Reaction *models.Reaction `json:"reaction"`
}

// ToggleReaction adds the (actor, emoji) reaction to a message, or
// removes it if already present. Works on both direct and group
// messages; the delta is fanned out to the relevant peers, never back
// to the actor, whose client applies the toggle locally.
func (s *Service) ToggleReaction(ctx context.Context, actorID uuid.UUID, messageID, emoji string) (*ToggleResult, error) {
	if emoji == "" {
		return nil, errors.New("emoji is required")
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	switch {
	case err == nil:
		return s.toggleDirect(ctx, actorID, msg, emoji)
	case errors.Is(err, store.ErrNotFound):
		// Fall through to group messages.
	default:
		return nil, err
	}

	gmsg, err := s.store.GetGroupMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return s.toggleGroup(ctx, actorID, gmsg, emoji)
}

func (s *Service) toggleDirect(ctx context.Context, actorID uuid.UUID, msg *models.Message, emoji string) (*ToggleResult, error) {
	if actorID != msg.SenderID && actorID != msg.ReceiverID {
		return nil, ErrForbidden
	}
	removed, err := s.store.ToggleReaction(ctx, msg.ID, actorID, emoji)
	if err != nil {
		// The toggle is the durable state change itself; unlike push
		// delivery it must not be swallowed.
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}

	result, delta := toggleOutcome(msg.ID, actorID, emoji, removed)
	s.notifier.NotifyDirectReaction(msg, delta)
	return result, nil
}

func (s *Service) toggleGroup(ctx context.Context, actorID uuid.UUID, gmsg *models.GroupMessage, emoji string) (*ToggleResult, error) {
	group, err := s.store.FindGroupByID(ctx, gmsg.GroupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	if !group.IsMember(actorID) {
		return nil, ErrNotMember
	}
	removed, err := s.store.ToggleReaction(ctx, gmsg.ID, actorID, emoji)
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}

	result, delta := toggleOutcome(gmsg.ID, actorID, emoji, removed)
	s.notifier.NotifyGroupReaction(group, delta)
	return result, nil
}

func toggleOutcome(messageID string, actorID uuid.UUID, emoji string, removed bool) (*ToggleResult, realtime.ReactionEvent) {
	outcome := "applied"
	if removed {
		outcome = "removed"
	}
	metrics.ReactionsToggled.WithLabelValues(outcome).Inc()

	result := &ToggleResult{Removed: removed}
	delta := realtime.ReactionEvent{
		MessageID: messageID,
		Emoji:     emoji,
		UserID:    actorID,
		Removed:   removed,
	}
	if !removed {
		r := &models.Reaction{Emoji: emoji, UserID: actorID}
		result.Reaction = r
		delta.Reaction = r
	}
	return result, delta
}

// MarkRead flips the read flag on every message from senderID to
// readerID in one batch, then notifies the sender once if online. A
// persistence failure is surfaced; the push is best-effort.
func (s *Service) MarkRead(ctx context.Context, readerID, senderID uuid.UUID) error {
	if _, err := s.store.UpdateManyMessagesRead(ctx, readerID, senderID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	s.notifier.NotifyMessagesRead(readerID, senderID)
	return nil
}

// MarkGroupRead acknowledges that a member saw a group message. Group
// messages carry no per-recipient read flag, so after validating the
// membership this is an accepted no-op.
func (s *Service) MarkGroupRead(ctx context.Context, readerID uuid.UUID, messageID string, groupID uuid.UUID) error {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("resolve group: %w", err)
	}
	if !group.IsMember(readerID) {
		return ErrNotMember
	}
	s.logger.Debug().
		Str("user_id", readerID.String()).
		Str("message_id", messageID).
		Str("group_id", groupID.String()).
		Msg("group message read ack")
	return nil
}
