package realtime

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/metrics"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

// Notifier is the fan-out layer: it resolves recipients against the
// presence registry and pushes events to whoever is online. Delivery
// over the live channel is best-effort at-most-once; the persisted
// store is the durable fallback, so an offline recipient is a no-op
// and a push that fails against a dying connection is swallowed and
// logged, never propagated.
type Notifier struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewNotifier creates a Notifier reading the given registry.
func NewNotifier(registry *Registry, logger zerolog.Logger) *Notifier {
	return &Notifier{
		registry: registry,
		logger:   logger.With().Str("component", "notifier").Logger(),
	}
}

// PushToUser pushes one event to userID's live connection. Returns
// false on a delivery miss (offline) or a swallowed push failure.
func (n *Notifier) PushToUser(userID uuid.UUID, event string, data any) bool {
	conn, ok := n.registry.Lookup(userID)
	if !ok {
		metrics.DeliveryMisses.Inc()
		return false
	}
	// The connection may have died between lookup and push; that race
	// is expected and must not fail the caller.
	if err := conn.Push(event, data); err != nil {
		metrics.PushFailures.WithLabelValues(event).Inc()
		n.logger.Debug().
			Err(err).
			Str("event", event).
			Str("user_id", userID.String()).
			Msg("push to dying connection swallowed")
		return false
	}
	metrics.EventsPushed.WithLabelValues(event).Inc()
	return true
}

// BroadcastOnline pushes the current online-user snapshot to every
// registered connection. The gateway calls this on every registration
// and disconnect; nothing else emits presence changes.
func (n *Notifier) BroadcastOnline() {
	online := n.registry.ListOnline()
	for _, conn := range n.registry.Connections() {
		if err := conn.Push(EventOnlineUsers, online); err != nil {
			metrics.PushFailures.WithLabelValues(EventOnlineUsers).Inc()
			continue
		}
		metrics.EventsPushed.WithLabelValues(EventOnlineUsers).Inc()
	}
}

// DeliverDirect pushes a persisted direct message to its recipient if
// online. Offline recipients fetch it from history on reconnect.
func (n *Notifier) DeliverDirect(msg *models.Message) {
	n.PushToUser(msg.ReceiverID, EventNewMessage, msg)
}

// DeliverGroup pushes a persisted group message to every online member
// except the sender. Membership is snapshotted at call time.
func (n *Notifier) DeliverGroup(msg *models.GroupMessage, group *models.Group) {
	ev := GroupMessageEvent{Message: msg, Group: group.Summary()}
	for _, member := range group.MemberSnapshot() {
		if member == msg.SenderID {
			continue
		}
		n.PushToUser(member, EventNewGroupMessage, ev)
	}
}

// RelayTypingDirect pushes a transient typing indicator to a single
// peer. Never persisted, never retried; receivers treat each event as
// the current state.
func (n *Notifier) RelayTypingDirect(senderID, peerID uuid.UUID, isTyping bool) {
	n.PushToUser(peerID, EventUserTyping, TypingEvent{SenderID: senderID, IsTyping: isTyping})
}

// RelayTypingGroup pushes a transient typing indicator to every online
// group member except the sender.
func (n *Notifier) RelayTypingGroup(senderID uuid.UUID, group *models.Group, isTyping bool) {
	gid := group.ID
	ev := TypingEvent{SenderID: senderID, GroupID: &gid, IsTyping: isTyping}
	for _, member := range group.MemberSnapshot() {
		if member == senderID {
			continue
		}
		n.PushToUser(member, EventTypingInGroup, ev)
	}
}

// NotifyMessagesRead tells senderID that readerID read their messages.
// One event per read action regardless of how many messages flipped.
func (n *Notifier) NotifyMessagesRead(readerID, senderID uuid.UUID) {
	n.PushToUser(senderID, EventMessagesRead, MessagesReadEvent{ReaderID: readerID})
}

// NotifyDirectReaction pushes a reaction delta to the other party of a
// direct message. The actor applies the toggle locally and receives
// nothing.
func (n *Notifier) NotifyDirectReaction(msg *models.Message, delta ReactionEvent) {
	other := msg.SenderID
	if delta.UserID == msg.SenderID {
		other = msg.ReceiverID
	}
	n.PushToUser(other, EventMessageReaction, delta)
}

// NotifyGroupReaction pushes a reaction delta to every online group
// member except the actor.
func (n *Notifier) NotifyGroupReaction(group *models.Group, delta ReactionEvent) {
	gid := group.ID
	delta.GroupID = &gid
	for _, member := range group.MemberSnapshot() {
		if member == delta.UserID {
			continue
		}
		n.PushToUser(member, EventGroupMessageReaction, delta)
	}
}

// NotifyNewGroup announces a freshly created group to every member
// except the creator, whose own request already returned it.
func (n *Notifier) NotifyNewGroup(group *models.Group, creatorID uuid.UUID) {
	ev := GroupEvent{Group: group}
	for _, member := range group.MemberSnapshot() {
		if member == creatorID {
			continue
		}
		n.PushToUser(member, EventNewGroup, ev)
	}
}

// NotifyAddedToGroup tells a newly added member about the group.
func (n *Notifier) NotifyAddedToGroup(group *models.Group, userID uuid.UUID) {
	n.PushToUser(userID, EventAddedToGroup, GroupEvent{Group: group})
}

// NotifyRemovedFromGroup tells a removed member they no longer belong.
func (n *Notifier) NotifyRemovedFromGroup(groupID, userID uuid.UUID) {
	n.PushToUser(userID, EventRemovedFromGroup, RemovedFromGroupEvent{GroupID: groupID})
}

// NotifyGroupUpdated pushes the new group state to every member not in
// exclude (typically the actor, and a member who just received a more
// specific lifecycle event).
func (n *Notifier) NotifyGroupUpdated(group *models.Group, exclude ...uuid.UUID) {
	ev := GroupEvent{Group: group}
outer:
	for _, member := range group.MemberSnapshot() {
		for _, ex := range exclude {
			if member == ex {
				continue outer
			}
		}
		n.PushToUser(member, EventGroupUpdated, ev)
	}
}
