package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"roomchat/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	room_code   TEXT NOT NULL,
	author_id   TEXT NOT NULL,
	author_name TEXT NOT NULL,
	body        TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(room_code, created_at);
`

// SQLiteStore implements interfaces.MessageStore on a local SQLite file.
// History per room is a bounded recent window, not an audit log: rows
// beyond historyCap are pruned on write.
type SQLiteStore struct {
	db         *sql.DB
	historyCap int
	writeMu    sync.Mutex // SQLite allows a single writer; serialize writes here
}

// NewSQLiteStore opens (and if needed bootstraps) the message database.
func NewSQLiteStore(path string, historyCap int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open message database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply message schema: %w", err)
	}

	return &SQLiteStore{db: db, historyCap: historyCap}, nil
}

// Save persists a message with a server-assigned ID and timestamp and
// returns the stored representation.
func (s *SQLiteStore) Save(ctx context.Context, roomCode, authorID, authorName, body string) (*types.ChatMessage, error) {
	msg := &types.ChatMessage{
		ID:         uuid.New().String(),
		RoomCode:   roomCode,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, room_code, author_id, author_name, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.RoomCode, msg.AuthorID, msg.AuthorName, msg.Body, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	if s.historyCap > 0 {
		if err := s.pruneLocked(ctx, roomCode); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// pruneLocked drops rows older than the newest historyCap for a room.
func (s *SQLiteStore) pruneLocked(ctx context.Context, roomCode string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM messages
		 WHERE room_code = ?
		   AND id NOT IN (
			SELECT id FROM messages
			WHERE room_code = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		 )`,
		roomCode, roomCode, s.historyCap)
	if err != nil {
		return fmt.Errorf("failed to prune message history: %w", err)
	}
	return nil
}

// FetchRecent returns up to limit recent messages for a room, oldest to
// newest.
func (s *SQLiteStore) FetchRecent(ctx context.Context, roomCode string, limit int) ([]*types.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_code, author_id, author_name, body, created_at
		 FROM messages
		 WHERE room_code = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	var messages []*types.ChatMessage
	for rows.Next() {
		msg := &types.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.RoomCode, &msg.AuthorID, &msg.AuthorName, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}

	// Query reads newest-first for the LIMIT; callers get oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
