package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT DEFAULT '',
		avatar TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now(),
		updated_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS chat_groups (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		admin_id UUID NOT NULL,
		avatar TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now(),
		updated_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS group_members (
		group_id UUID NOT NULL,
		user_id UUID NOT NULL,
		position INT NOT NULL,
		PRIMARY KEY (group_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id UUID NOT NULL,
		receiver_id UUID NOT NULL,
		text TEXT DEFAULT '',
		image TEXT DEFAULT '',
		document TEXT DEFAULT '',
		voice TEXT DEFAULT '',
		read BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS group_messages (
		id TEXT PRIMARY KEY,
		group_id UUID NOT NULL,
		sender_id UUID NOT NULL,
		text TEXT DEFAULT '',
		image TEXT DEFAULT '',
		document TEXT DEFAULT '',
		voice TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS reactions (
		message_id TEXT NOT NULL,
		user_id UUID NOT NULL,
		emoji TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now(),
		UNIQUE (message_id, user_id, emoji)
	);

	CREATE TABLE IF NOT EXISTS scheduled_messages (
		id UUID PRIMARY KEY,
		sender_id UUID NOT NULL,
		receiver_id UUID,
		group_id UUID,
		text TEXT DEFAULT '',
		image TEXT DEFAULT '',
		document TEXT DEFAULT '',
		voice TEXT DEFAULT '',
		scheduled_for TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		sent_at TIMESTAMPTZ,
		fail_reason TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now(),
		updated_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id);
	CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, read);
	CREATE INDEX IF NOT EXISTS idx_group_messages_group ON group_messages(group_id);
	CREATE INDEX IF NOT EXISTS idx_reactions_message ON reactions(message_id);
	CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
	CREATE INDEX IF NOT EXISTS idx_scheduled_due ON scheduled_messages(status, scheduled_for);
	CREATE INDEX IF NOT EXISTS idx_scheduled_sender ON scheduled_messages(sender_id);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, name, email, avatar string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, avatar)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, avatar, created_at, updated_at
	`, uuid.New(), name, email, avatar).Scan(
		&user.ID, &user.Name, &user.Email, &user.Avatar, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindUserByID retrieves a user by ID.
func (s *PostgresStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, avatar, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SaveMessage inserts a direct message.
func (s *PostgresStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, text, image, document, voice, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, msg.ID, msg.SenderID, msg.ReceiverID, msg.Text, msg.Image, msg.Document, msg.Voice, msg.Read, msg.CreatedAt)
	return err
}

// GetMessage retrieves a direct message with its reactions.
func (s *PostgresStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, sender_id, receiver_id, text, image, document, voice, read, created_at
		FROM messages WHERE id = $1
	`, id).Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.Image,
		&msg.Document, &msg.Voice, &msg.Read, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Reactions, err = s.loadReactions(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListConversation retrieves the most recent messages between two
// users, oldest first.
func (s *PostgresStore) ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, text, image, document, voice, read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY id DESC LIMIT $3
	`, a, b, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.Image,
			&msg.Document, &msg.Voice, &msg.Read, &msg.CreatedAt); err != nil {
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

// UpdateManyMessagesRead flips the read flag on all unread messages
// from senderID to readerID in a single statement.
func (s *PostgresStore) UpdateManyMessagesRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND read = FALSE
	`, readerID, senderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SaveGroupMessage inserts a group message.
func (s *PostgresStore) SaveGroupMessage(ctx context.Context, msg *models.GroupMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO group_messages (id, group_id, sender_id, text, image, document, voice, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ID, msg.GroupID, msg.SenderID, msg.Text, msg.Image, msg.Document, msg.Voice, msg.CreatedAt)
	return err
}

// GetGroupMessage retrieves a group message with its reactions.
func (s *PostgresStore) GetGroupMessage(ctx context.Context, id string) (*models.GroupMessage, error) {
	msg := &models.GroupMessage{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, group_id, sender_id, text, image, document, voice, created_at
		FROM group_messages WHERE id = $1
	`, id).Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.Text, &msg.Image,
		&msg.Document, &msg.Voice, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
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
func (s *PostgresStore) ListGroupMessages(ctx context.Context, groupID uuid.UUID, limit int) ([]models.GroupMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, group_id, sender_id, text, image, document, voice, created_at
		FROM group_messages WHERE group_id = $1
		ORDER BY id DESC LIMIT $2
	`, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.GroupMessage
	for rows.Next() {
		var msg models.GroupMessage
		if err := rows.Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.Text, &msg.Image,
			&msg.Document, &msg.Voice, &msg.CreatedAt); err != nil {
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
// inserts it. ON CONFLICT DO NOTHING makes the insert path safe
// against a concurrent identical toggle.
func (s *PostgresStore) ToggleReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3
	`, messageID, userID, emoji)
	if err != nil {
		return false, err
	}

	removed := tag.RowsAffected() > 0
	if !removed {
		_, err = tx.Exec(ctx, `
			INSERT INTO reactions (message_id, user_id, emoji)
			VALUES ($1, $2, $3)
			ON CONFLICT (message_id, user_id, emoji) DO NOTHING
		`, messageID, userID, emoji)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return removed, nil
}

// loadReactions fetches the reactions for one message.
func (s *PostgresStore) loadReactions(ctx context.Context, messageID string) ([]models.Reaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, emoji FROM reactions WHERE message_id = $1 ORDER BY created_at
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []models.Reaction
	for rows.Next() {
		var r models.Reaction
		if err := rows.Scan(&r.UserID, &r.Emoji); err != nil {
			return nil, err
		}
		reactions = append(reactions, r)
	}
	return reactions, rows.Err()
}

// SaveGroup upserts a group and replaces its member list.
func (s *PostgresStore) SaveGroup(ctx context.Context, g *models.Group) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_groups (id, name, admin_id, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			admin_id = EXCLUDED.admin_id,
			avatar = EXCLUDED.avatar,
			updated_at = EXCLUDED.updated_at
	`, g.ID, g.Name, g.AdminID, g.Avatar, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, g.ID); err != nil {
		return err
	}
	for i, member := range g.Members {
		if _, err = tx.Exec(ctx, `
			INSERT INTO group_members (group_id, user_id, position) VALUES ($1, $2, $3)
		`, g.ID, member, i); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// FindGroupByID retrieves a group with its ordered member list.
func (s *PostgresStore) FindGroupByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g := &models.Group{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, admin_id, avatar, created_at, updated_at
		FROM chat_groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.AdminID, &g.Avatar, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var member uuid.UUID
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		g.Members = append(g.Members, member)
	}
	return g, rows.Err()
}

// DeleteGroup removes a group and its membership rows.
func (s *PostgresStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, id); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM chat_groups WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveScheduledMessage upserts a scheduled message.
func (s *PostgresStore) SaveScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_messages
			(id, sender_id, receiver_id, group_id, text, image, document, voice,
			 scheduled_for, status, sent_at, fail_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			image = EXCLUDED.image,
			document = EXCLUDED.document,
			voice = EXCLUDED.voice,
			scheduled_for = EXCLUDED.scheduled_for,
			status = EXCLUDED.status,
			sent_at = EXCLUDED.sent_at,
			fail_reason = EXCLUDED.fail_reason,
			updated_at = EXCLUDED.updated_at
	`, m.ID, m.SenderID, m.ReceiverID, m.GroupID,
		m.Text, m.Image, m.Document, m.Voice,
		m.ScheduledFor, string(m.Status), m.SentAt, m.FailReason, m.CreatedAt, m.UpdatedAt)
	return err
}

// ReviseScheduledMessage rewrites payload and fire time while the row
// is still pending. The status guard in the WHERE clause keeps a stale
// edit from reverting a message the dispatcher marked sent or failed.
func (s *PostgresStore) ReviseScheduledMessage(ctx context.Context, m *models.ScheduledMessage) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET text = $1, image = $2, document = $3, voice = $4, scheduled_for = $5, updated_at = $6
		WHERE id = $7 AND status = 'scheduled'
	`, m.Text, m.Image, m.Document, m.Voice, m.ScheduledFor, m.UpdatedAt, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// GetScheduledMessage retrieves a scheduled message by ID.
func (s *PostgresStore) GetScheduledMessage(ctx context.Context, id uuid.UUID) (*models.ScheduledMessage, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, document, voice,
		       scheduled_for, status, sent_at, fail_reason, created_at, updated_at
		FROM scheduled_messages WHERE id = $1
	`, id)
	m, err := scanScheduledPg(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// FindDueScheduledMessages returns pending messages due at or before
// now, oldest fire time first.
func (s *PostgresStore) FindDueScheduledMessages(ctx context.Context, now time.Time) ([]models.ScheduledMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, document, voice,
		       scheduled_for, status, sent_at, fail_reason, created_at, updated_at
		FROM scheduled_messages
		WHERE status = 'scheduled' AND scheduled_for <= $1
		ORDER BY scheduled_for ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledPg(rows)
}

// ListScheduledBySender returns all scheduled messages owned by a
// sender, newest fire time first.
func (s *PostgresStore) ListScheduledBySender(ctx context.Context, senderID uuid.UUID) ([]models.ScheduledMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, document, voice,
		       scheduled_for, status, sent_at, fail_reason, created_at, updated_at
		FROM scheduled_messages
		WHERE sender_id = $1
		ORDER BY scheduled_for DESC
	`, senderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledPg(rows)
}

// DeleteScheduledMessage cancels a pending scheduled message. The
// status guard keeps a racing cancel from erasing a dispatched row.
func (s *PostgresStore) DeleteScheduledMessage(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM scheduled_messages WHERE id = $1 AND status = 'scheduled'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func scanScheduledPg(row pgx.Row) (*models.ScheduledMessage, error) {
	m := &models.ScheduledMessage{}
	var status string
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.GroupID,
		&m.Text, &m.Image, &m.Document, &m.Voice,
		&m.ScheduledFor, &status, &m.SentAt, &m.FailReason, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Status = models.ScheduledStatus(status)
	return m, nil
}

func collectScheduledPg(rows pgx.Rows) ([]models.ScheduledMessage, error) {
	var out []models.ScheduledMessage
	for rows.Next() {
		m, err := scanScheduledPg(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
