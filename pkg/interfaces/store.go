package interfaces

import (
	"context"

	"roomchat/pkg/types"
)

// MessageStore is the external message persistence collaborator. The core
// never broadcasts a user message before Save has returned successfully.
type MessageStore interface {
	// Save persists a message and returns the stored representation with
	// its server-assigned ID and timestamp.
	Save(ctx context.Context, roomCode, authorID, authorName, body string) (*types.ChatMessage, error)

	// FetchRecent returns up to limit recent messages for a room, ordered
	// oldest to newest.
	FetchRecent(ctx context.Context, roomCode string, limit int) ([]*types.ChatMessage, error)
}
