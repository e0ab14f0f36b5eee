package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
)

// memStore is an in-memory DataStore for tests.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	messages  map[string]*models.Message
	gmessages map[string]*models.GroupMessage
	groups    map[uuid.UUID]*models.Group
	reactions map[string][]models.Reaction
	scheduled map[uuid.UUID]*models.ScheduledMessage

	failSave bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]*models.User),
		messages:  make(map[string]*models.Message),
		gmessages: make(map[string]*models.GroupMessage),
		groups:    make(map[uuid.UUID]*models.Group),
		reactions: make(map[string][]models.Reaction),
		scheduled: make(map[uuid.UUID]*models.ScheduledMessage),
	}
}

func (s *memStore) addUser() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New(), Name: "user", CreatedAt: time.Now()}
	s.users[u.ID] = u
	return u.ID
}

func (s *memStore) Close()                         {}
func (s *memStore) Ping(ctx context.Context) error { return nil }

func (s *memStore) CreateUser(ctx context.Context, name, email, avatar string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New(), Name: name, Email: email, Avatar: avatar, CreatedAt: time.Now()}
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *memStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("save failed")
	}
	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *memStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	cp.Reactions = append([]models.Reaction(nil), s.reactions[id]...)
	return &cp, nil
}

func (s *memStore) ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) UpdateManyMessagesRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == readerID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) SaveGroupMessage(ctx context.Context, msg *models.GroupMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("save failed")
	}
	cp := *msg
	s.gmessages[msg.ID] = &cp
	return nil
}

func (s *memStore) GetGroupMessage(ctx context.Context, id string) (*models.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.gmessages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	cp.Reactions = append([]models.Reaction(nil), s.reactions[id]...)
	return &cp, nil
}

func (s *memStore) ListGroupMessages(ctx context.Context, groupID uuid.UUID, limit int) ([]models.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GroupMessage
	for _, m := range s.gmessages {
		if m.GroupID == groupID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) ToggleReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.reactions[messageID]
	for i, r := range existing {
		if r.UserID == userID && r.Emoji == emoji {
			s.reactions[messageID] = append(existing[:i], existing[i+1:]...)
			return true, nil
		}
	}
	s.reactions[messageID] = append(existing, models.Reaction{Emoji: emoji, UserID: userID})
	return false, nil
}

func (s *memStore) SaveGroup(ctx context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	cp.Members = append([]uuid.UUID(nil), g.Members...)
	s.groups[g.ID] = &cp
	return nil
}

func (s *memStore) FindGroupByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *g
	cp.Members = append([]uuid.UUID(nil), g.Members...)
	return &cp, nil
}

func (s *memStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, id)
	return nil
}

func (s *memStore) SaveScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.scheduled[m.ID] = &cp
	return nil
}

func (s *memStore) ReviseScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.scheduled[m.ID]
	if !ok || cur.Status != models.ScheduledStatusPending {
		return store.ErrNotPending
	}
	cur.Payload = m.Payload
	cur.ScheduledFor = m.ScheduledFor
	cur.UpdatedAt = m.UpdatedAt
	return nil
}

func (s *memStore) GetScheduledMessage(ctx context.Context, id uuid.UUID) (*models.ScheduledMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.scheduled[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) FindDueScheduledMessages(ctx context.Context, now time.Time) ([]models.ScheduledMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledMessage
	for _, m := range s.scheduled {
		if m.Status == models.ScheduledStatusPending && !m.ScheduledFor.After(now) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out, nil
}

func (s *memStore) ListScheduledBySender(ctx context.Context, senderID uuid.UUID) ([]models.ScheduledMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledMessage
	for _, m := range s.scheduled {
		if m.SenderID == senderID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memStore) DeleteScheduledMessage(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.scheduled[id]
	if !ok || m.Status != models.ScheduledStatusPending {
		return store.ErrNotPending
	}
	delete(s.scheduled, id)
	return nil
}

// fakePusher records pushed events for assertions.
type fakePusher struct {
	userID uuid.UUID

	mu     sync.Mutex
	events []string
}

func (p *fakePusher) UserID() uuid.UUID { return p.userID }

func (p *fakePusher) Push(event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePusher) pushed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
