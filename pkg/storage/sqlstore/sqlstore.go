// Package sqlstore implements storage.Driver over database/sql. The SQLite
// and PostgreSQL drivers share it and differ only in dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/chatter/pkg/storage"
)

// Dialect selects the SQL flavor a Store speaks.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Store implements storage.Driver on a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New wraps db. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	idType := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == Postgres {
		idType = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id ` + idType + `,
			title TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id ` + idType + `,
			conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages (conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations (updated_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CreateConversation stores a new conversation.
func (s *Store) CreateConversation(ctx context.Context, title string) (*storage.Conversation, error) {
	now := s.now().UTC().Truncate(time.Millisecond)

	var id int64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO conversations (title, created_at, updated_at) VALUES (?, ?, ?) RETURNING id`),
		title, now.UnixMilli(), now.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("inserting conversation: %w", err)
	}

	return &storage.Conversation{
		ID:        id,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetConversation retrieves a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id int64) (*storage.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`),
		id,
	)

	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ConversationID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation %d: %w", id, err)
	}
	return conv, nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *Store) ListConversations(ctx context.Context) ([]*storage.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	convs := []*storage.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// AddMessage appends msg to its conversation and bumps its updated_at in
// one transaction.
func (s *Store) AddMessage(ctx context.Context, msg *storage.Message) error {
	if msg == nil {
		return errors.New("cannot store nil message")
	}

	now := s.now().UTC().Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		s.rebind(`UPDATE conversations SET updated_at = ? WHERE id = ?`),
		now.UnixMilli(), msg.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("touching conversation %d: %w", msg.ConversationID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.NotFoundError{ConversationID: msg.ConversationID}
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		s.rebind(`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		msg.ConversationID, msg.Role, msg.Content, now.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}

	msg.ID = id
	msg.CreatedAt = now
	return nil
}

// Messages returns a conversation's messages, oldest first.
func (s *Store) Messages(ctx context.Context, conversationID int64) ([]*storage.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`),
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	msgs := []*storage.Message{}
	for rows.Next() {
		var (
			m         storage.Message
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.CreatedAt = time.UnixMilli(createdAt).UTC()
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (*storage.Conversation, error) {
	var (
		c                    storage.Conversation
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Title, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &c, nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
