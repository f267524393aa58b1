package storage

import (
	"context"

	"github.com/xaenox/assistant-gateway/internal/models"
)

// Storage is the conversation persistence gateway: the durable
// customer -> user -> thread mapping plus the append-only conversation
// log. The Ensure methods are idempotent upserts.
type Storage interface {
	EnsureCustomer(ctx context.Context, customerID string) error
	EnsureUser(ctx context.Context, userID, customerID string) error
	EnsureThread(ctx context.Context, userID, customerID, threadID string) error

	// GetThreadByUserID returns the user's thread id, or the empty
	// string when the user has no thread yet.
	GetThreadByUserID(ctx context.Context, userID string) (string, error)

	SaveConversationEntry(ctx context.Context, userID, customerID, content string, role models.Role) error

	Close() error
}
