package models

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is a single emoji reaction on a message. A user can hold at
// most one reaction per emoji on a given message; repeating the same
// (user, emoji) submission removes it.
type Reaction struct {
	Emoji  string    `json:"emoji"`
	UserID uuid.UUID `json:"user_id"`
}

// Payload carries the optional message content. A message must have at
// least one field set to be deliverable.
type Payload struct {
	Text     string `json:"text,omitempty"`
	Image    string `json:"image,omitempty"`    // uploaded media URL
	Document string `json:"document,omitempty"` // uploaded document URL
	Voice    string `json:"voice,omitempty"`    // uploaded voice note URL
}

// Empty reports whether the payload has no content at all.
func (p Payload) Empty() bool {
	return p.Text == "" && p.Image == "" && p.Document == "" && p.Voice == ""
}

// Message is a persisted one-to-one chat message.
type Message struct {
	ID         string     `json:"id"` // ULID
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Payload    `json:"payload"`
	Read       bool       `json:"read"`
	Reactions  []Reaction `json:"reactions,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GroupMessage is a persisted message posted to a group. Group
// messages carry no per-recipient read flag.
type GroupMessage struct {
	ID        string     `json:"id"` // ULID
	GroupID   uuid.UUID  `json:"group_id"`
	SenderID  uuid.UUID  `json:"sender_id"`
	Payload   `json:"payload"`
	Reactions []Reaction `json:"reactions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// HasReaction reports whether reactions contains the (user, emoji) pair.
func HasReaction(reactions []Reaction, userID uuid.UUID, emoji string) bool {
	for _, r := range reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}
