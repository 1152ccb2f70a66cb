package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eduassist/campusrag/internal/model"
)

// CreateConversation starts a new conversation for a user.
func (s *SQLiteStore) CreateConversation(ctx context.Context, userID, title string) (*model.Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	now := time.Now().UTC()
	c := &model.Conversation{
		ID:        s.newID(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Title, fmtTime(now), fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

// GetConversation returns a non-deleted conversation by id.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at, deleted_at
		 FROM conversations WHERE id = ? AND deleted_at IS NULL`, id)

	var c model.Conversation
	var createdAt, updatedAt string
	var deletedAt sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &createdAt, &updatedAt, &deletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("conversation not found: %s", id)
		}
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	c.DeletedAt = parseTimePtr(deletedAt)
	return &c, nil
}

// AddMessage appends a message to a conversation.
func (s *SQLiteStore) AddMessage(ctx context.Context, conversationID string, sender model.Sender, content string) (*model.Message, error) {
	now := time.Now().UTC()
	m := &model.Message{
		ID:             s.newID(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, string(m.Sender), m.Content, fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	s.db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, fmtTime(now), conversationID)
	return m, nil
}

// RecentMessages returns the last n non-deleted messages of a
// conversation in chronological order.
func (s *SQLiteStore) RecentMessages(ctx context.Context, conversationID string, n int) ([]model.Message, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender, content, created_at, deleted_at
		 FROM messages
		 WHERE conversation_id = ? AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT ?`, conversationID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	// Reverse newest-first into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, rows.Err()
}

// AssistantMessageBefore returns the most recent assistant message at or
// before the given time, used to attribute negative feedback to the reply
// that triggered it.
func (s *SQLiteStore) AssistantMessageBefore(ctx context.Context, conversationID string, t time.Time) (*model.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, sender, content, created_at, deleted_at
		 FROM messages
		 WHERE conversation_id = ? AND sender = 'assistant' AND deleted_at IS NULL AND created_at <= ?
		 ORDER BY created_at DESC LIMIT 1`, conversationID, fmtTime(t))

	m, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no assistant message before %s", t.Format(time.RFC3339))
		}
		return nil, err
	}
	return &m, nil
}

// SoftDeleteConversation marks a conversation and all of its messages
// deleted.
func (s *SQLiteStore) SoftDeleteConversation(ctx context.Context, id string) error {
	now := fmtTime(time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation not found: %s", id)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE messages SET deleted_at = ? WHERE conversation_id = ? AND deleted_at IS NULL`,
		now, id)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func scanMessage(row scanner) (model.Message, error) {
	var m model.Message
	var sender, createdAt string
	var deletedAt sql.NullString
	err := row.Scan(&m.ID, &m.ConversationID, &sender, &m.Content, &createdAt, &deletedAt)
	if err != nil {
		return m, err
	}
	m.Sender = model.Sender(sender)
	m.CreatedAt = parseTime(createdAt)
	m.DeletedAt = parseTimePtr(deletedAt)
	return m, nil
}
