// Package cache provides the local SQLite snapshot store. It holds the
// last committed conversation list and thread windows so the client can
// render immediately at startup, before the first live fetch lands.
// It is strictly a cache: live data always replaces it wholesale.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/models"
)

const (
	writeRetryAttempts = 3
	writeRetryBackoff  = 50 * time.Millisecond
)

// Store is a SQLite-backed snapshot store.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (and if needed creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	store := &Store{db: db, logger: logging.Component("cache")}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			teacher_id TEXT NOT NULL,
			subject TEXT,
			student_id TEXT,
			last_message_preview TEXT NOT NULL DEFAULT '',
			last_message_at TEXT NOT NULL,
			unread_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			content TEXT NOT NULL,
			is_read INTEGER NOT NULL DEFAULT 0,
			read_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_thread_idx ON messages(conversation_id, created_at, id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure cache schema: %w", err)
		}
	}
	return nil
}

// SaveConversations replaces the cached conversation list.
func (s *Store) SaveConversations(ctx context.Context, items []models.ConversationSummary) error {
	return s.writeWithRetry(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM conversations`); err != nil {
			return err
		}
		for i, item := range items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO conversations
					(id, parent_id, teacher_id, subject, student_id,
					 last_message_preview, last_message_at, unread_count, created_at, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.ParentID, item.TeacherID,
				nullableString(item.Subject), nullableString(item.StudentID),
				item.LastMessagePreview, formatTime(item.LastMessageAt),
				item.UnreadCount, formatTime(item.CreatedAt), i,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadConversations returns the cached conversation list in its saved order.
func (s *Store) LoadConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, teacher_id, subject, student_id,
		        last_message_preview, last_message_at, unread_count, created_at
		 FROM conversations ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ConversationSummary
	for rows.Next() {
		var item models.ConversationSummary
		var subject, studentID sql.NullString
		var lastMessageAt, createdAt string
		if err := rows.Scan(&item.ID, &item.ParentID, &item.TeacherID,
			&subject, &studentID, &item.LastMessagePreview,
			&lastMessageAt, &item.UnreadCount, &createdAt); err != nil {
			return nil, err
		}
		item.Subject = subject.String
		item.StudentID = studentID.String
		item.LastMessageAt = parseTime(lastMessageAt)
		item.CreatedAt = parseTime(createdAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveMessages replaces the cached window for one conversation.
func (s *Store) SaveMessages(ctx context.Context, conversationID string, messages []models.Message) error {
	if strings.TrimSpace(conversationID) == "" {
		return errors.New("conversation id required")
	}
	return s.writeWithRetry(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
			return err
		}
		for _, msg := range messages {
			var readAt any
			if msg.ReadAt != nil {
				readAt = formatTime(*msg.ReadAt)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO messages
					(id, conversation_id, sender_id, content, is_read, read_at, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				msg.ID, msg.ConversationID, msg.SenderID, msg.Content,
				boolToInt(msg.IsRead), readAt, formatTime(msg.CreatedAt),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadMessages returns the cached window for one conversation in thread order.
func (s *Store) LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, content, is_read, read_at, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var isRead int
		var readAt sql.NullString
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID,
			&msg.Content, &isRead, &readAt, &createdAt); err != nil {
			return nil, err
		}
		msg.IsRead = isRead != 0
		if readAt.Valid {
			at := parseTime(readAt.String)
			msg.ReadAt = &at
		}
		msg.CreatedAt = parseTime(createdAt)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// writeWithRetry runs fn in a transaction, retrying on busy-database errors.
func (s *Store) writeWithRetry(ctx context.Context, fn func(*sql.Tx) error) error {
	backoff := writeRetryBackoff
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.transact(ctx, fn)
		if err == nil {
			return nil
		}
		if !isBusyError(err) || attempt >= writeRetryAttempts {
			return err
		}
		s.logger.Debug().Err(err).Int("attempt", attempt).Msg("cache write retry")
		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
}

func (s *Store) transact(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database is busy") ||
		strings.Contains(message, "sqlite_busy")
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
