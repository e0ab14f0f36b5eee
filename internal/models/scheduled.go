package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScheduledStatus is the lifecycle state of a scheduled message.
// Transitions are one-way: scheduled -> sent or scheduled -> failed.
type ScheduledStatus string

const (
	ScheduledStatusPending ScheduledStatus = "scheduled"
	ScheduledStatusSent    ScheduledStatus = "sent"
	ScheduledStatusFailed  ScheduledStatus = "failed"
)

// ErrAmbiguousTarget is returned when a scheduled message does not
// name exactly one of receiver or group.
var ErrAmbiguousTarget = errors.New("scheduled message must target exactly one of receiver or group")

// ScheduledMessage is a user-authored message deferred to a future
// fire time. The dispatch loop materializes it into a real Message or
// GroupMessage. Only the owning sender may edit or delete it, and only
// while still pending.
type ScheduledMessage struct {
	ID         uuid.UUID       `json:"id"`
	SenderID   uuid.UUID       `json:"sender_id"`
	ReceiverID *uuid.UUID      `json:"receiver_id,omitempty"`
	GroupID    *uuid.UUID      `json:"group_id,omitempty"`
	Payload    `json:"payload"`
	ScheduledFor time.Time     `json:"scheduled_for"`
	Status       ScheduledStatus `json:"status"`
	SentAt       *time.Time    `json:"sent_at,omitempty"`
	FailReason   string        `json:"fail_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Target is the resolved delivery destination of a scheduled message:
// exactly one variant is set.
type Target struct {
	UserID  *uuid.UUID
	GroupID *uuid.UUID
}

// IsGroup reports whether the target is a group conversation.
func (t Target) IsGroup() bool { return t.GroupID != nil }

// Target returns the delivery destination, or ErrAmbiguousTarget when
// the row does not name exactly one destination.
func (m *ScheduledMessage) Target() (Target, error) {
	switch {
	case m.ReceiverID != nil && m.GroupID == nil:
		return Target{UserID: m.ReceiverID}, nil
	case m.GroupID != nil && m.ReceiverID == nil:
		return Target{GroupID: m.GroupID}, nil
	default:
		return Target{}, ErrAmbiguousTarget
	}
}

// Terminal reports whether the message has reached a final status.
func (m *ScheduledMessage) Terminal() bool {
	return m.Status == ScheduledStatusSent || m.Status == ScheduledStatusFailed
}
