package realtime

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

// Event names pushed to clients. These are the wire-level contract the
// web and mobile clients match on.
const (
	EventOnlineUsers          = "getOnlineUsers"
	EventNewMessage           = "newMessage"
	EventNewGroupMessage      = "newGroupMessage"
	EventUserTyping           = "userTyping"
	EventTypingInGroup        = "typingInGroup"
	EventMessagesRead         = "messagesRead"
	EventMessageReaction      = "messageReaction"
	EventGroupMessageReaction = "groupMessageReaction"
	EventNewGroup             = "newGroup"
	EventAddedToGroup         = "addedToGroup"
	EventRemovedFromGroup     = "removedFromGroup"
	EventGroupUpdated         = "groupUpdated"
)

// Event names consumed from clients.
const (
	EventTyping           = "typing"
	EventMessageRead      = "messageRead"
	EventReadGroupMessage = "readGroupMessage"
)

// Event is one outbound frame.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Frame is one inbound client frame; Data is decoded per event name.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TypingFrame is the payload of an inbound "typing" frame. Exactly one
// of PeerID or GroupID is set.
type TypingFrame struct {
	PeerID   *uuid.UUID `json:"peer_id,omitempty"`
	GroupID  *uuid.UUID `json:"group_id,omitempty"`
	IsTyping bool       `json:"is_typing"`
}

// MessageReadFrame is the payload of an inbound "messageRead" frame:
// the client read every message the sender had sent them.
type MessageReadFrame struct {
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
}

// ReadGroupMessageFrame is the payload of an inbound
// "readGroupMessage" frame.
type ReadGroupMessageFrame struct {
	MessageID string    `json:"message_id"`
	GroupID   uuid.UUID `json:"group_id"`
}

// TypingEvent is the outbound shape for userTyping / typingInGroup.
type TypingEvent struct {
	SenderID uuid.UUID  `json:"sender_id"`
	GroupID  *uuid.UUID `json:"group_id,omitempty"`
	IsTyping bool       `json:"is_typing"`
}

// MessagesReadEvent tells a sender that the other party read their
// messages. One event per read action, not one per message.
type MessagesReadEvent struct {
	ReaderID uuid.UUID `json:"reader_id"`
}

// GroupMessageEvent is the outbound shape for newGroupMessage.
type GroupMessageEvent struct {
	Message *models.GroupMessage `json:"message"`
	Group   models.Summary       `json:"group"`
}

// ReactionEvent is the outbound delta for messageReaction /
// groupMessageReaction. Reaction is nil when the toggle removed the
// pair; Emoji and UserID always identify the toggled pair.
type ReactionEvent struct {
	MessageID string           `json:"message_id"`
	GroupID   *uuid.UUID       `json:"group_id,omitempty"`
	Emoji     string           `json:"emoji"`
	UserID    uuid.UUID        `json:"user_id"`
	Reaction  *models.Reaction `json:"reaction"`
	Removed   bool             `json:"removed"`
}

// GroupEvent is the outbound shape for group lifecycle events.
type GroupEvent struct {
	Group *models.Group `json:"group"`
}

// RemovedFromGroupEvent is pushed to a user who was removed from (or
// left) a group.
type RemovedFromGroupEvent struct {
	GroupID uuid.UUID `json:"group_id"`
}
