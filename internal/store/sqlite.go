package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/chat.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/chat.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT DEFAULT '',
		avatar TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chat_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		admin_id TEXT NOT NULL,
		avatar TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS group_members (
		group_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (group_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		text TEXT DEFAULT '',
		image TEXT DEFAULT '',
		document TEXT DEFAULT '',
		voice TEXT DEFAULT '',
		read INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS group_messages (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		text TEXT DEFAULT '',
		image TEXT DEFAULT '',
		document TEXT DEFAULT '',
		voice TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reactions (
		message_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		emoji TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (message_id, user_id, emoji)
	);

	CREATE TABLE IF NOT EXISTS scheduled_messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT,
		group_id TEXT,
		text TEXT DEFAULT '',
		image TEXT DEFAULT '',
		document TEXT DEFAULT '',
		voice TEXT DEFAULT '',
		scheduled_for DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		sent_at DATETIME,
		fail_reason TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id);
	CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, read);
	CREATE INDEX IF NOT EXISTS idx_group_messages_group ON group_messages(group_id);
	CREATE INDEX IF NOT EXISTS idx_reactions_message ON reactions(message_id);
	CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
	CREATE INDEX IF NOT EXISTS idx_scheduled_due ON scheduled_messages(status, scheduled_for);
	CREATE INDEX IF NOT EXISTS idx_scheduled_sender ON scheduled_messages(sender_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, avatar string) (*models.User, error) {
	id := uuid.New()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id.String(), name, email, avatar, now, now)
	if err != nil {
		return nil, err
	}

	return s.FindUserByID(ctx, id)
}

// FindUserByID retrieves a user by ID.
func (s *SQLiteStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	var idStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, avatar, created_at, updated_at
		FROM users WHERE id = ?
	`, id.String()).Scan(&idStr, &user.Name, &user.Email, &user.Avatar, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SaveMessage inserts a direct message.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, text, image, document, voice, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.SenderID.String(), msg.ReceiverID.String(),
		msg.Text, msg.Image, msg.Document, msg.Voice, boolToInt(msg.Read), msg.CreatedAt)
	return err
}

// GetMessage retrieves a direct message with its reactions.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	msg := &models.Message{}
	var senderStr, receiverStr string
	var read int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sender_id, receiver_id, text, image, document, voice, read, created_at
		FROM messages WHERE id = ?
	`, id).Scan(&msg.ID, &senderStr, &receiverStr, &msg.Text, &msg.Image,
		&msg.Document, &msg.Voice, &read, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Read = read != 0
	if msg.SenderID, err = uuid.Parse(senderStr); err != nil {
		return nil, err
	}
	if msg.ReceiverID, err = uuid.Parse(receiverStr); err != nil {
		return nil, err
	}
	msg.Reactions, err = s.loadReactions(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListConversation retrieves the most recent messages between two
// users, oldest first. ULIDs sort by creation time.
func (s *SQLiteStore) ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, text, image, document, voice, read, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY id DESC LIMIT ?
	`, a.String(), b.String(), b.String(), a.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var senderStr, receiverStr string
		var read int
		if err := rows.Scan(&msg.ID, &senderStr, &receiverStr, &msg.Text, &msg.Image,
			&msg.Document, &msg.Voice, &read, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Read = read != 0
		if msg.SenderID, err = uuid.Parse(senderStr); err != nil {
			return nil, err
		}
		if msg.ReceiverID, err = uuid.Parse(receiverStr); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	for i := range messages {
		if messages[i].Reactions, err = s.loadReactions(ctx, messages[i].ID); err != nil {
			return nil, err
		}
	}
	return messages, nil
}

// UpdateManyMessagesRead flips the read flag on all unread messages
// from senderID to readerID in a single statement.
func (s *SQLiteStore) UpdateManyMessagesRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read = 1
		WHERE receiver_id = ? AND sender_id = ? AND read = 0
	`, readerID.String(), senderID.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveGroupMessage inserts a group message.
func (s *SQLiteStore) SaveGroupMessage(ctx context.Context, msg *models.GroupMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_messages (id, group_id, sender_id, text, image, document, voice, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.GroupID.String(), msg.SenderID.String(),
		msg.Text, msg.Image, msg.Document, msg.Voice, msg.CreatedAt)
	return err
}

// GetGroupMessage retrieves a group message with its reactions.
func (s *SQLiteStore) GetGroupMessage(ctx context.Context, id string) (*models.GroupMessage, error) {
	msg := &models.GroupMessage{}
	var groupStr, senderStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, sender_id, text, image, document, voice, created_at
		FROM group_messages WHERE id = ?
	`, id).Scan(&msg.ID, &groupStr, &senderStr, &msg.Text, &msg.Image,
		&msg.Document, &msg.Voice, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if msg.GroupID, err = uuid.Parse(groupStr); err != nil {
		return nil, err
	}
	if msg.SenderID, err = uuid.Parse(senderStr); err != nil {
		return nil, err
	}
	msg.Reactions, err = s.loadReactions(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListGroupMessages retrieves the most recent messages in a group,
// oldest first.
func (s *SQLiteStore) ListGroupMessages(ctx context.Context, groupID uuid.UUID, limit int) ([]models.GroupMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, sender_id, text, image, document, voice, created_at
		FROM group_messages WHERE group_id = ?
		ORDER BY id DESC LIMIT ?
	`, groupID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.GroupMessage
	for rows.Next() {
		var msg models.GroupMessage
		var groupStr, senderStr string
		if err := rows.Scan(&msg.ID, &groupStr, &senderStr, &msg.Text, &msg.Image,
			&msg.Document, &msg.Voice, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if msg.GroupID, err = uuid.Parse(groupStr); err != nil {
			return nil, err
		}
		if msg.SenderID, err = uuid.Parse(senderStr); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	for i := range messages {
		if messages[i].Reactions, err = s.loadReactions(ctx, messages[i].ID); err != nil {
			return nil, err
		}
	}
	return messages, nil
}

// ToggleReaction removes the (user, emoji) pair if present, otherwise
// inserts it. The unique constraint makes the insert path safe against
// a concurrent identical toggle.
func (s *SQLiteStore) ToggleReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND emoji = ?
	`, messageID, userID.String(), emoji)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	removed := n > 0
	if !removed {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO reactions (message_id, user_id, emoji) VALUES (?, ?, ?)
		`, messageID, userID.String(), emoji)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return removed, nil
}

// loadReactions fetches the reactions for one message.
func (s *SQLiteStore) loadReactions(ctx context.Context, messageID string) ([]models.Reaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, emoji FROM reactions WHERE message_id = ? ORDER BY created_at
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []models.Reaction
	for rows.Next() {
		var r models.Reaction
		var userStr string
		if err := rows.Scan(&userStr, &r.Emoji); err != nil {
			return nil, err
		}
		if r.UserID, err = uuid.Parse(userStr); err != nil {
			return nil, err
		}
		reactions = append(reactions, r)
	}
	return reactions, rows.Err()
}

// SaveGroup upserts a group and replaces its member list.
func (s *SQLiteStore) SaveGroup(ctx context.Context, g *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_groups (id, name, admin_id, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			admin_id = excluded.admin_id,
			avatar = excluded.avatar,
			updated_at = excluded.updated_at
	`, g.ID.String(), g.Name, g.AdminID.String(), g.Avatar, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, g.ID.String()); err != nil {
		return err
	}
	for i, member := range g.Members {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, position) VALUES (?, ?, ?)
		`, g.ID.String(), member.String(), i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindGroupByID retrieves a group with its ordered member list.
func (s *SQLiteStore) FindGroupByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g := &models.Group{}
	var idStr, adminStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, admin_id, avatar, created_at, updated_at
		FROM chat_groups WHERE id = ?
	`, id.String()).Scan(&idStr, &g.Name, &adminStr, &g.Avatar, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if g.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if g.AdminID, err = uuid.Parse(adminStr); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM group_members WHERE group_id = ? ORDER BY position
	`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var memberStr string
		if err := rows.Scan(&memberStr); err != nil {
			return nil, err
		}
		member, err := uuid.Parse(memberStr)
		if err != nil {
			return nil, err
		}
		g.Members = append(g.Members, member)
	}
	return g, rows.Err()
}

// DeleteGroup removes a group and its membership rows.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, id.String()); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM chat_groups WHERE id = ?`, id.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveScheduledMessage upserts a scheduled message.
func (s *SQLiteStore) SaveScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	var receiver, group sql.NullString
	if m.ReceiverID != nil {
		receiver = sql.NullString{String: m.ReceiverID.String(), Valid: true}
	}
	if m.GroupID != nil {
		group = sql.NullString{String: m.GroupID.String(), Valid: true}
	}
	var sentAt sql.NullTime
	if m.SentAt != nil {
		sentAt = sql.NullTime{Time: *m.SentAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_messages
			(id, sender_id, receiver_id, group_id, text, image, document, voice,
			 scheduled_for, status, sent_at, fail_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			image = excluded.image,
			document = excluded.document,
			voice = excluded.voice,
			scheduled_for = excluded.scheduled_for,
			status = excluded.status,
			sent_at = excluded.sent_at,
			fail_reason = excluded.fail_reason,
			updated_at = excluded.updated_at
	`, m.ID.String(), m.SenderID.String(), receiver, group,
		m.Text, m.Image, m.Document, m.Voice,
		m.ScheduledFor, string(m.Status), sentAt, m.FailReason, m.CreatedAt, m.UpdatedAt)
	return err
}

// ReviseScheduledMessage rewrites payload and fire time while the row
// is still pending. The status guard in the WHERE clause keeps a stale
// edit from reverting a message the dispatcher marked sent or failed.
func (s *SQLiteStore) ReviseScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET text = ?, image = ?, document = ?, voice = ?, scheduled_for = ?, updated_at = ?
		WHERE id = ? AND status = 'scheduled'
	`, m.Text, m.Image, m.Document, m.Voice, m.ScheduledFor, m.UpdatedAt, m.ID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// GetScheduledMessage retrieves a scheduled message by ID.
func (s *SQLiteStore) GetScheduledMessage(ctx context.Context, id uuid.UUID) (*models.ScheduledMessage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, document, voice,
		       scheduled_for, status, sent_at, fail_reason, created_at, updated_at
		FROM scheduled_messages WHERE id = ?
	`, id.String())
	m, err := scanScheduled(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// FindDueScheduledMessages returns pending messages due at or before
// now, oldest fire time first.
func (s *SQLiteStore) FindDueScheduledMessages(ctx context.Context, now time.Time) ([]models.ScheduledMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, document, voice,
		       scheduled_for, status, sent_at, fail_reason, created_at, updated_at
		FROM scheduled_messages
		WHERE status = 'scheduled' AND scheduled_for <= ?
		ORDER BY scheduled_for ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduled(rows)
}

// ListScheduledBySender returns all scheduled messages owned by a
// sender, newest fire time first.
func (s *SQLiteStore) ListScheduledBySender(ctx context.Context, senderID uuid.UUID) ([]models.ScheduledMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, document, voice,
		       scheduled_for, status, sent_at, fail_reason, created_at, updated_at
		FROM scheduled_messages
		WHERE sender_id = ?
		ORDER BY scheduled_for DESC
	`, senderID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduled(rows)
}

// DeleteScheduledMessage cancels a pending scheduled message. The
// status guard keeps a racing cancel from erasing a dispatched row.
func (s *SQLiteStore) DeleteScheduledMessage(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scheduled_messages WHERE id = ? AND status = 'scheduled'
	`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduled(row rowScanner) (*models.ScheduledMessage, error) {
	m := &models.ScheduledMessage{}
	var idStr, senderStr, status string
	var receiver, group sql.NullString
	var sentAt sql.NullTime
	err := row.Scan(&idStr, &senderStr, &receiver, &group,
		&m.Text, &m.Image, &m.Document, &m.Voice,
		&m.ScheduledFor, &status, &sentAt, &m.FailReason, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if m.SenderID, err = uuid.Parse(senderStr); err != nil {
		return nil, err
	}
	if receiver.Valid {
		id, err := uuid.Parse(receiver.String)
		if err != nil {
			return nil, err
		}
		m.ReceiverID = &id
	}
	if group.Valid {
		id, err := uuid.Parse(group.String)
		if err != nil {
			return nil, err
		}
		m.GroupID = &id
	}
	if sentAt.Valid {
		t := sentAt.Time
		m.SentAt = &t
	}
	m.Status = models.ScheduledStatus(status)
	return m, nil
}

func collectScheduled(rows *sql.Rows) ([]models.ScheduledMessage, error) {
	var out []models.ScheduledMessage
	for rows.Next() {
		m, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
