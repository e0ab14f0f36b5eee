package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/token"
)

// userStore is the minimal DataStore surface the gateway touches.
type userStore struct {
	users  map[uuid.UUID]*models.User
	groups map[uuid.UUID]*models.Group
}

func newUserStore() *userStore {
	return &userStore{
		users:  make(map[uuid.UUID]*models.User),
		groups: make(map[uuid.UUID]*models.Group),
	}
}

func (s *userStore) addUser() uuid.UUID {
	id := uuid.New()
	s.users[id] = &models.User{ID: id, Name: "user"}
	return id
}

func (s *userStore) Close()                         {}
func (s *userStore) Ping(ctx context.Context) error { return nil }

func (s *userStore) CreateUser(ctx context.Context, name, email, avatar string) (*models.User, error) {
	return nil, nil
}

func (s *userStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *userStore) SaveMessage(ctx context.Context, msg *models.Message) error { return nil }
func (s *userStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	return nil, store.ErrNotFound
}
func (s *userStore) ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	return nil, nil
}
func (s *userStore) UpdateManyMessagesRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	return 0, nil
}
func (s *userStore) SaveGroupMessage(ctx context.Context, msg *models.GroupMessage) error { return nil }
func (s *userStore) GetGroupMessage(ctx context.Context, id string) (*models.GroupMessage, error) {
	return nil, store.ErrNotFound
}
func (s *userStore) ListGroupMessages(ctx context.Context, groupID uuid.UUID, limit int) ([]models.GroupMessage, error) {
	return nil, nil
}
func (s *userStore) ToggleReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (bool, error) {
	return false, nil
}
func (s *userStore) SaveGroup(ctx context.Context, g *models.Group) error { return nil }
func (s *userStore) FindGroupByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g, nil
}
func (s *userStore) DeleteGroup(ctx context.Context, id uuid.UUID) error { return nil }
func (s *userStore) SaveScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	return nil
}
func (s *userStore) ReviseScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	return store.ErrNotPending
}
func (s *userStore) GetScheduledMessage(ctx context.Context, id uuid.UUID) (*models.ScheduledMessage, error) {
	return nil, store.ErrNotFound
}
func (s *userStore) FindDueScheduledMessages(ctx context.Context, now time.Time) ([]models.ScheduledMessage, error) {
	return nil, nil
}
func (s *userStore) ListScheduledBySender(ctx context.Context, senderID uuid.UUID) ([]models.ScheduledMessage, error) {
	return nil, nil
}
func (s *userStore) DeleteScheduledMessage(ctx context.Context, id uuid.UUID) error { return nil }

// nopSink drops inbound persistence events.
type nopSink struct{}

func (nopSink) MarkRead(ctx context.Context, readerID, senderID uuid.UUID) error { return nil }
func (nopSink) MarkGroupRead(ctx context.Context, readerID uuid.UUID, messageID string, groupID uuid.UUID) error {
	return nil
}

func newTestGateway(t *testing.T) (*Gateway, *Registry, *userStore, *token.Verifier, *httptest.Server) {
	t.Helper()
	st := newUserStore()
	verifier := token.NewVerifier("test-secret")
	registry := NewRegistry()
	notifier := NewNotifier(registry, zerolog.Nop())
	gw := NewGateway(registry, notifier, st, verifier, nopSink{}, zerolog.Nop())

	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	t.Cleanup(srv.Close)
	return gw, registry, st, verifier, srv
}

func wsURL(srv *httptest.Server, tokenString string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	if tokenString != "" {
		u += "?token=" + tokenString
	}
	return u
}

func TestHandshakeRejectedWithoutToken(t *testing.T) {
	_, registry, _, _, srv := newTestGateway(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
}

func TestHandshakeRejectedForUnknownUser(t *testing.T) {
	_, registry, _, verifier, srv := newTestGateway(t)

	// Valid token, but no such user provisioned.
	signed, err := verifier.Mint(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, signed), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
}

func TestConnectRegistersAndBroadcastsPresence(t *testing.T) {
	_, registry, st, verifier, srv := newTestGateway(t)
	userID := st.addUser()

	signed, err := verifier.Mint(userID, time.Hour)
	require.NoError(t, err)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv, signed), nil)
	require.NoError(t, err)
	defer ws.Close()

	// The registration broadcast reaches the new connection itself.
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, EventOnlineUsers, ev.Event)

	var online []uuid.UUID
	require.NoError(t, json.Unmarshal(ev.Data, &online))
	assert.Equal(t, []uuid.UUID{userID}, online)

	require.Eventually(t, func() bool { return registry.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDisconnectUnregistersAndBroadcasts(t *testing.T) {
	_, registry, st, verifier, srv := newTestGateway(t)
	stayID := st.addUser()
	leaveID := st.addUser()

	stayToken, err := verifier.Mint(stayID, time.Hour)
	require.NoError(t, err)
	leaveToken, err := verifier.Mint(leaveID, time.Hour)
	require.NoError(t, err)

	stay, _, err := websocket.DefaultDialer.Dial(wsURL(srv, stayToken), nil)
	require.NoError(t, err)
	defer stay.Close()

	leave, _, err := websocket.DefaultDialer.Dial(wsURL(srv, leaveToken), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return registry.Len() == 2 }, time.Second, 10*time.Millisecond)

	leave.Close()
	require.Eventually(t, func() bool { return registry.Len() == 1 }, time.Second, 10*time.Millisecond)

	// The survivor eventually observes a snapshot without the leaver.
	stay.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, stay.ReadJSON(&ev))
		if ev.Event != EventOnlineUsers {
			continue
		}
		var online []uuid.UUID
		require.NoError(t, json.Unmarshal(ev.Data, &online))
		if len(online) == 1 {
			assert.Equal(t, []uuid.UUID{stayID}, online)
			return
		}
	}
}

func TestTypingRelayBetweenPeers(t *testing.T) {
	_, _, st, verifier, srv := newTestGateway(t)
	aliceID := st.addUser()
	bobID := st.addUser()

	aliceToken, err := verifier.Mint(aliceID, time.Hour)
	require.NoError(t, err)
	bobToken, err := verifier.Mint(bobID, time.Hour)
	require.NoError(t, err)

	alice, _, err := websocket.DefaultDialer.Dial(wsURL(srv, aliceToken), nil)
	require.NoError(t, err)
	defer alice.Close()
	bob, _, err := websocket.DefaultDialer.Dial(wsURL(srv, bobToken), nil)
	require.NoError(t, err)
	defer bob.Close()

	// Let both registrations settle.
	time.Sleep(50 * time.Millisecond)

	err = alice.WriteJSON(map[string]any{
		"event": EventTyping,
		"data":  map[string]any{"peer_id": bobID, "is_typing": true},
	})
	require.NoError(t, err)

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, bob.ReadJSON(&ev))
		if ev.Event != EventUserTyping {
			continue
		}
		var typing TypingEvent
		require.NoError(t, json.Unmarshal(ev.Data, &typing))
		assert.Equal(t, aliceID, typing.SenderID)
		assert.True(t, typing.IsTyping)
		return
	}
}
