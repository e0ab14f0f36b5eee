package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
)

// schedStore is an in-memory DataStore covering what the dispatcher
// touches. findDueGate, when set, blocks FindDueScheduledMessages until
// released so tests can hold a cycle open.
type schedStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	groups    map[uuid.UUID]*models.Group
	messages  map[string]*models.Message
	gmessages map[string]*models.GroupMessage
	scheduled map[uuid.UUID]*models.ScheduledMessage

	findDueGate chan struct{}
}

func newSchedStore() *schedStore {
	return &schedStore{
		users:     make(map[uuid.UUID]*models.User),
		groups:    make(map[uuid.UUID]*models.Group),
		messages:  make(map[string]*models.Message),
		gmessages: make(map[string]*models.GroupMessage),
		scheduled: make(map[uuid.UUID]*models.ScheduledMessage),
	}
}

func (s *schedStore) addUser() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = &models.User{ID: id, Name: "user"}
	return id
}

func (s *schedStore) addGroup(members ...uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.groups[id] = &models.Group{ID: id, Name: "group", AdminID: members[0], Members: members}
	return id
}

func (s *schedStore) addScheduled(m *models.ScheduledMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.scheduled[m.ID] = &cp
}

func (s *schedStore) status(id uuid.UUID) models.ScheduledStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled[id].Status
}

func (s *schedStore) Close()                         {}
func (s *schedStore) Ping(ctx context.Context) error { return nil }

func (s *schedStore) CreateUser(ctx context.Context, name, email, avatar string) (*models.User, error) {
	return nil, nil
}

func (s *schedStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *schedStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *schedStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	return nil, store.ErrNotFound
}

func (s *schedStore) ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	return nil, nil
}

func (s *schedStore) UpdateManyMessagesRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *schedStore) SaveGroupMessage(ctx context.Context, msg *models.GroupMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.gmessages[msg.ID] = &cp
	return nil
}

func (s *schedStore) GetGroupMessage(ctx context.Context, id string) (*models.GroupMessage, error) {
	return nil, store.ErrNotFound
}

func (s *schedStore) ListGroupMessages(ctx context.Context, groupID uuid.UUID, limit int) ([]models.GroupMessage, error) {
	return nil, nil
}

func (s *schedStore) ToggleReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (bool, error) {
	return false, nil
}

func (s *schedStore) SaveGroup(ctx context.Context, g *models.Group) error { return nil }

func (s *schedStore) FindGroupByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g, nil
}

func (s *schedStore) DeleteGroup(ctx context.Context, id uuid.UUID) error { return nil }

func (s *schedStore) SaveScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.scheduled[m.ID] = &cp
	return nil
}

func (s *schedStore) ReviseScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
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

func (s *schedStore) GetScheduledMessage(ctx context.Context, id uuid.UUID) (*models.ScheduledMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.scheduled[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *schedStore) FindDueScheduledMessages(ctx context.Context, now time.Time) ([]models.ScheduledMessage, error) {
	if s.findDueGate != nil {
		<-s.findDueGate
	}
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

func (s *schedStore) ListScheduledBySender(ctx context.Context, senderID uuid.UUID) ([]models.ScheduledMessage, error) {
	return nil, nil
}

func (s *schedStore) DeleteScheduledMessage(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.scheduled[id]
	if !ok || m.Status != models.ScheduledStatusPending {
		return store.ErrNotPending
	}
	delete(s.scheduled, id)
	return nil
}

// fakeDeliverer records fan-out calls.
type fakeDeliverer struct {
	mu      sync.Mutex
	direct  []*models.Message
	group   []*models.GroupMessage
	pushes  []string
	pushIDs []uuid.UUID
}

func (d *fakeDeliverer) DeliverDirect(msg *models.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.direct = append(d.direct, msg)
}

func (d *fakeDeliverer) DeliverGroup(msg *models.GroupMessage, group *models.Group) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.group = append(d.group, msg)
}

func (d *fakeDeliverer) PushToUser(userID uuid.UUID, event string, data any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushes = append(d.pushes, event)
	d.pushIDs = append(d.pushIDs, userID)
	return true
}

func pending(sender uuid.UUID, at time.Time) *models.ScheduledMessage {
	now := time.Now().UTC()
	return &models.ScheduledMessage{
		ID:           uuid.New(),
		SenderID:     sender,
		Payload:      models.Payload{Text: "later"},
		ScheduledFor: at,
		Status:       models.ScheduledStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestDispatchDirectMessage(t *testing.T) {
	st := newSchedStore()
	deliver := &fakeDeliverer{}
	d := New(st, deliver, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()
	m := pending(sender, time.Now().Add(-time.Second))
	m.ReceiverID = &receiver
	st.addScheduled(m)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{Processed: 1, Sent: 1}, stats)
	assert.Equal(t, models.ScheduledStatusSent, st.status(m.ID))

	got, err := st.GetScheduledMessage(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SentAt)

	// Delivered through the normal fan-out path, plus an echo to the
	// sender's own connection.
	require.Len(t, deliver.direct, 1)
	assert.Equal(t, receiver, deliver.direct[0].ReceiverID)
	assert.Equal(t, "later", deliver.direct[0].Text)
	require.Len(t, deliver.pushes, 1)
	assert.Equal(t, sender, deliver.pushIDs[0])

	// The materialized message was persisted unread.
	require.Len(t, st.messages, 1)
	for _, msg := range st.messages {
		assert.False(t, msg.Read)
	}
}

func TestDispatchGroupMessage(t *testing.T) {
	st := newSchedStore()
	deliver := &fakeDeliverer{}
	d := New(st, deliver, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	member := st.addUser()
	groupID := st.addGroup(sender, member)

	m := pending(sender, time.Now().Add(-time.Second))
	m.GroupID = &groupID
	st.addScheduled(m)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{Processed: 1, Sent: 1}, stats)
	require.Len(t, deliver.group, 1)
	assert.Equal(t, groupID, deliver.group[0].GroupID)
}

func TestDispatchSkipsFutureMessages(t *testing.T) {
	st := newSchedStore()
	d := New(st, &fakeDeliverer{}, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()
	m := pending(sender, time.Now().Add(time.Hour))
	m.ReceiverID = &receiver
	st.addScheduled(m)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, models.ScheduledStatusPending, st.status(m.ID))
}

func TestDispatchFailureIsolation(t *testing.T) {
	st := newSchedStore()
	deliver := &fakeDeliverer{}
	d := New(st, deliver, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()

	good1 := pending(sender, time.Now().Add(-3*time.Second))
	good1.ReceiverID = &receiver
	// Recipient does not exist; this one must fail without touching
	// the other two.
	bad := pending(sender, time.Now().Add(-2*time.Second))
	missing := uuid.New()
	bad.ReceiverID = &missing
	good2 := pending(sender, time.Now().Add(-time.Second))
	good2.ReceiverID = &receiver

	st.addScheduled(good1)
	st.addScheduled(bad)
	st.addScheduled(good2)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{Processed: 3, Sent: 2, Failed: 1}, stats)

	assert.Equal(t, models.ScheduledStatusSent, st.status(good1.ID))
	assert.Equal(t, models.ScheduledStatusFailed, st.status(bad.ID))
	assert.Equal(t, models.ScheduledStatusSent, st.status(good2.ID))

	failed, err := st.GetScheduledMessage(context.Background(), bad.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, failed.FailReason)
}

func TestDispatchFailsEmptyPayload(t *testing.T) {
	st := newSchedStore()
	d := New(st, &fakeDeliverer{}, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()
	m := pending(sender, time.Now().Add(-time.Second))
	m.ReceiverID = &receiver
	m.Payload = models.Payload{}
	st.addScheduled(m)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{Processed: 1, Failed: 1}, stats)
	assert.Equal(t, models.ScheduledStatusFailed, st.status(m.ID))
}

func TestDispatchFailsAmbiguousTarget(t *testing.T) {
	st := newSchedStore()
	d := New(st, &fakeDeliverer{}, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()
	groupID := st.addGroup(sender)

	m := pending(sender, time.Now().Add(-time.Second))
	m.ReceiverID = &receiver
	m.GroupID = &groupID
	st.addScheduled(m)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{Processed: 1, Failed: 1}, stats)
}

func TestDispatchFailsWhenSenderLeftGroup(t *testing.T) {
	st := newSchedStore()
	deliver := &fakeDeliverer{}
	d := New(st, deliver, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	other := st.addUser()
	groupID := st.addGroup(other) // sender not a member

	m := pending(sender, time.Now().Add(-time.Second))
	m.GroupID = &groupID
	st.addScheduled(m)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{Processed: 1, Failed: 1}, stats)
	assert.Empty(t, deliver.group)
}

func TestOverlappingCycleIsSkipped(t *testing.T) {
	st := newSchedStore()
	st.findDueGate = make(chan struct{})
	d := New(st, &fakeDeliverer{}, zerolog.Nop(), time.Minute)

	first := make(chan Stats)
	go func() {
		first <- d.TriggerNow(context.Background())
	}()

	// Wait until the first cycle holds the guard.
	require.Eventually(t, func() bool {
		return d.Status().State == StateRunning
	}, time.Second, 5*time.Millisecond)

	// A tick arriving mid-cycle is dropped, not queued.
	stats := d.TriggerNow(context.Background())
	assert.True(t, stats.Skipped)

	close(st.findDueGate)
	assert.Equal(t, Stats{}, <-first)
	assert.Equal(t, StateIdle, d.Status().State)
}

func TestProcessOneRejectsTerminal(t *testing.T) {
	st := newSchedStore()
	d := New(st, &fakeDeliverer{}, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()
	m := pending(sender, time.Now().Add(-time.Second))
	m.ReceiverID = &receiver
	m.Status = models.ScheduledStatusSent
	st.addScheduled(m)

	err := d.ProcessOne(context.Background(), m.ID)
	assert.Error(t, err)
}

func TestProcessOneDispatchesRegardlessOfFireTime(t *testing.T) {
	st := newSchedStore()
	deliver := &fakeDeliverer{}
	d := New(st, deliver, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()
	m := pending(sender, time.Now().Add(time.Hour))
	m.ReceiverID = &receiver
	st.addScheduled(m)

	require.NoError(t, d.ProcessOne(context.Background(), m.ID))
	assert.Equal(t, models.ScheduledStatusSent, st.status(m.ID))
	assert.Len(t, deliver.direct, 1)
}

func TestCatchUpIgnoresRecentlyDue(t *testing.T) {
	st := newSchedStore()
	d := New(st, &fakeDeliverer{}, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()

	// Due ten seconds ago: the regular loop's next tick owns it.
	recent := pending(sender, time.Now().Add(-10*time.Second))
	recent.ReceiverID = &receiver
	// Due ten minutes ago: missed while the process was down.
	stale := pending(sender, time.Now().Add(-10*time.Minute))
	stale.ReceiverID = &receiver

	st.addScheduled(recent)
	st.addScheduled(stale)

	stats := d.CatchUp(context.Background())
	assert.Equal(t, Stats{Processed: 1, Sent: 1}, stats)
	assert.Equal(t, models.ScheduledStatusSent, st.status(stale.ID))
	assert.Equal(t, models.ScheduledStatusPending, st.status(recent.ID))
}

func TestStaleEditCannotRevertDispatchedMessage(t *testing.T) {
	st := newSchedStore()
	deliver := &fakeDeliverer{}
	d := New(st, deliver, zerolog.Nop(), time.Minute)

	sender := st.addUser()
	receiver := st.addUser()
	m := pending(sender, time.Now().Add(-time.Second))
	m.ReceiverID = &receiver
	st.addScheduled(m)

	// An owner edit loads its working copy, then a dispatch cycle
	// fires before the edit is written back.
	stale, err := st.GetScheduledMessage(context.Background(), m.ID)
	require.NoError(t, err)

	stats := d.TriggerNow(context.Background())
	assert.Equal(t, Stats{Processed: 1, Sent: 1}, stats)
	require.Len(t, deliver.direct, 1)

	stale.Payload.Text = "edited too late"
	stale.UpdatedAt = time.Now().UTC()
	err = st.ReviseScheduledMessage(context.Background(), stale)
	require.ErrorIs(t, err, store.ErrNotPending)

	// A racing cancel is rejected the same way.
	err = st.DeleteScheduledMessage(context.Background(), m.ID)
	require.ErrorIs(t, err, store.ErrNotPending)

	// Sent stays terminal and the next cycle finds nothing, so the
	// message is never delivered twice.
	assert.Equal(t, models.ScheduledStatusSent, st.status(m.ID))
	stats = d.TriggerNow(context.Background())
	assert.Equal(t, Stats{}, stats)
	require.Len(t, deliver.direct, 1)
}
