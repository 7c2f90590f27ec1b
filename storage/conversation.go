// Package storage provides conversation storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"

	"github.com/promer94/image2questions/thread"
)

// ConversationStorage defines the interface for storing conversation threads.
// Implementations can use different backends (memory, file, database).
type ConversationStorage interface {
	// Save saves the turns of a session.
	Save(ctx context.Context, sessionID string, turns []thread.Turn) error

	// Load loads the turns of a session.
	// Returns empty slice (not nil) if session doesn't exist.
	// Returns error only for storage failures (I/O errors, etc.), not missing sessions.
	Load(ctx context.Context, sessionID string) ([]thread.Turn, error)

	// Delete deletes a session and its turns.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}
