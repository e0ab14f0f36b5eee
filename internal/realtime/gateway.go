package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/metrics"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/token"
)

// EventSink handles inbound client events that touch persistent
// state. Implemented by the chat service.
type EventSink interface {
	// MarkRead batch-flips the read flag on every message from
	// senderID to readerID and notifies the sender.
	MarkRead(ctx context.Context, readerID, senderID uuid.UUID) error
	// MarkGroupRead acknowledges that readerID saw a group message.
	MarkGroupRead(ctx context.Context, readerID uuid.UUID, messageID string, groupID uuid.UUID) error
}

// Gateway authenticates incoming websocket connections, binds each to
// a user identity, and keeps the presence registry current. It is the
// only component that mutates the registry and the only emitter of
// presence-changed broadcasts.
//
// Per-connection state machine: Connecting -> Authenticated ->
// Registered -> Disconnected. A missing or invalid credential refuses
// the connection before any registry mutation.
type Gateway struct {
	registry *Registry
	notifier *Notifier
	store    store.DataStore
	verifier *token.Verifier
	sink     EventSink
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewGateway creates a Gateway.
func NewGateway(registry *Registry, notifier *Notifier, st store.DataStore, verifier *token.Verifier, sink EventSink, logger zerolog.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		notifier: notifier,
		store:    st,
		verifier: verifier,
		sink:     sink,
		logger:   logger.With().Str("component", "gateway").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers cannot set headers on websocket dials; the
			// bearer token in the query string is the credential.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS is the websocket endpoint. The handshake carries the bearer
// credential as a "token" query parameter.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
		httpError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	userID, err := g.verifier.Verify(tokenString)
	if err != nil {
		metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
		httpError(w, http.StatusUnauthorized, "invalid credential")
		return
	}

	if _, err := g.store.FindUserByID(r.Context(), userID); err != nil {
		metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
		status := http.StatusUnauthorized
		if err != store.ErrNotFound {
			status = http.StatusInternalServerError
		}
		httpError(w, status, "unknown user")
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade writes its own error response.
		g.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := newConn(userID, ws, g.logger)
	g.register(conn)
	go conn.writePump()
	g.readLoop(r.Context(), conn)
	g.disconnect(conn)
}

// register moves an authenticated connection to Registered and
// broadcasts the new presence snapshot.
func (g *Gateway) register(conn *Conn) {
	g.registry.Register(conn.userID, conn)
	metrics.ConnectionsTotal.WithLabelValues("registered").Inc()
	metrics.ConnectionsActive.Inc()
	g.logger.Info().Str("user_id", conn.userID.String()).Msg("user connected")
	g.notifier.BroadcastOnline()
}

// disconnect tears a connection down. The unregister is conditional on
// the handle so a stale disconnect cannot evict a newer connection for
// the same user.
func (g *Gateway) disconnect(conn *Conn) {
	conn.close()
	metrics.ConnectionsActive.Dec()
	if g.registry.Unregister(conn.userID, conn) {
		g.logger.Info().Str("user_id", conn.userID.String()).Msg("user disconnected")
		g.notifier.BroadcastOnline()
	}
}

// readLoop consumes inbound frames until the connection dies.
func (g *Gateway) readLoop(ctx context.Context, conn *Conn) {
	conn.ws.SetReadLimit(maxFrameSize)
	conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				conn.logger.Debug().Err(err).Msg("read error")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			conn.logger.Debug().Err(err).Msg("malformed frame dropped")
			continue
		}
		g.handleFrame(ctx, conn, frame)
	}
}

// handleFrame dispatches one inbound client event.
func (g *Gateway) handleFrame(ctx context.Context, conn *Conn, frame Frame) {
	switch frame.Event {
	case EventTyping:
		var f TypingFrame
		if err := json.Unmarshal(frame.Data, &f); err != nil {
			return
		}
		g.handleTyping(ctx, conn, f)

	case EventMessageRead:
		var f MessageReadFrame
		if err := json.Unmarshal(frame.Data, &f); err != nil {
			return
		}
		// The reader is always this connection's identity, whatever
		// the frame claims.
		if err := g.sink.MarkRead(ctx, conn.userID, f.SenderID); err != nil {
			conn.logger.Warn().Err(err).Msg("mark read failed")
			_ = conn.Push("error", map[string]string{"message": "failed to mark messages read"})
		}

	case EventReadGroupMessage:
		var f ReadGroupMessageFrame
		if err := json.Unmarshal(frame.Data, &f); err != nil {
			return
		}
		if err := g.sink.MarkGroupRead(ctx, conn.userID, f.MessageID, f.GroupID); err != nil {
			conn.logger.Debug().Err(err).Msg("group read ack failed")
		}

	default:
		conn.logger.Debug().Str("event", frame.Event).Msg("unknown frame event dropped")
	}
}

// handleTyping relays a transient typing indicator to the peer or the
// group, depending on which target the frame names.
func (g *Gateway) handleTyping(ctx context.Context, conn *Conn, f TypingFrame) {
	switch {
	case f.PeerID != nil:
		g.notifier.RelayTypingDirect(conn.userID, *f.PeerID, f.IsTyping)
	case f.GroupID != nil:
		group, err := g.store.FindGroupByID(ctx, *f.GroupID)
		if err != nil {
			return
		}
		if !group.IsMember(conn.userID) {
			return
		}
		g.notifier.RelayTypingGroup(conn.userID, group, f.IsTyping)
	}
}

func httpError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
