// Package chatclient provides a small client for the chat server's
// HTTP API and websocket stream.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is a chat API client. Token is the bearer credential used for
// both HTTP calls and the websocket handshake.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Payload is the message content envelope.
type Payload struct {
	Text     string `json:"text,omitempty"`
	Image    string `json:"image,omitempty"`
	Document string `json:"document,omitempty"`
	Voice    string `json:"voice,omitempty"`
}

// Message is a direct message as returned by the API.
type Message struct {
	ID         string    `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Payload    Payload   `json:"payload"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// SendMessage sends a direct text message.
func (c *Client) SendMessage(ctx context.Context, receiverID uuid.UUID, text string) (*Message, error) {
	body := map[string]any{
		"receiver_id": receiverID,
		"payload":     Payload{Text: text},
	}
	var msg Message
	if err := c.post(ctx, "/api/messages", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendGroupMessage sends a text message to a group.
func (c *Client) SendGroupMessage(ctx context.Context, groupID uuid.UUID, text string) error {
	body := map[string]any{"payload": Payload{Text: text}}
	return c.post(ctx, "/api/groups/"+groupID.String()+"/messages", body, nil)
}

// MarkRead marks every unread message from the peer as read.
func (c *Client) MarkRead(ctx context.Context, peerID uuid.UUID) error {
	return c.post(ctx, "/api/messages/"+peerID.String()+"/read", struct{}{}, nil)
}

// ToggleReaction toggles the caller's emoji reaction on a message.
func (c *Client) ToggleReaction(ctx context.Context, messageID, emoji string) error {
	body := map[string]string{"message_id": messageID, "emoji": emoji}
	return c.post(ctx, "/api/reactions", body, nil)
}

// Schedule stores a direct message for future dispatch.
func (c *Client) Schedule(ctx context.Context, receiverID uuid.UUID, text string, at time.Time) error {
	body := map[string]any{
		"receiver_id":   receiverID,
		"payload":       Payload{Text: text},
		"scheduled_for": at,
	}
	return c.post(ctx, "/api/scheduled", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Event is one frame from the websocket stream.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Conn is a live websocket session.
type Conn struct {
	ws *websocket.Conn
}

// Connect dials the websocket endpoint, authenticating with the
// client's token.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = "token=" + url.QueryEscape(c.Token)

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed: %s", resp.Status)
		}
		return nil, err
	}
	return &Conn{ws: ws}, nil
}

// ReadEvent blocks until the next event arrives.
func (conn *Conn) ReadEvent() (*Event, error) {
	var ev Event
	if err := conn.ws.ReadJSON(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// SendTyping reports a typing state change to a direct conversation
// peer.
func (conn *Conn) SendTyping(peerID uuid.UUID, isTyping bool) error {
	return conn.send("typing", map[string]any{"peer_id": peerID, "is_typing": isTyping})
}

// SendGroupTyping reports a typing state change in a group.
func (conn *Conn) SendGroupTyping(groupID uuid.UUID, isTyping bool) error {
	return conn.send("typing", map[string]any{"group_id": groupID, "is_typing": isTyping})
}

// SendRead reports that all messages from a peer have been read.
func (conn *Conn) SendRead(peerID uuid.UUID) error {
	return conn.send("messageRead", map[string]any{"sender_id": peerID})
}

func (conn *Conn) send(event string, data any) error {
	return conn.ws.WriteJSON(map[string]any{"event": event, "data": data})
}

// Close closes the websocket session.
func (conn *Conn) Close() error {
	return conn.ws.Close()
}
