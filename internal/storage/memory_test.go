package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/assistant-gateway/internal/models"
)

func TestMemoryStorageThreadLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	threadID, err := store.GetThreadByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, threadID, "a new user has no thread")

	require.NoError(t, store.EnsureCustomer(ctx, "acme"))
	require.NoError(t, store.EnsureUser(ctx, "u1", "acme"))
	require.NoError(t, store.EnsureThread(ctx, "u1", "acme", "thread_abc"))

	threadID, err = store.GetThreadByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", threadID)
}

func TestMemoryStorageEnsureThreadKeepsFirstThread(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	require.NoError(t, store.EnsureThread(ctx, "u1", "acme", "thread_first"))
	require.NoError(t, store.EnsureThread(ctx, "u1", "acme", "thread_second"))

	threadID, err := store.GetThreadByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "thread_first", threadID, "the user-thread mapping is 1:1 for its lifetime")
}

func TestMemoryStorageEnsureCustomerIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	require.NoError(t, store.EnsureCustomer(ctx, "acme"))
	require.NoError(t, store.EnsureCustomer(ctx, "acme"))
	assert.True(t, store.HasCustomer("acme"))
}

func TestMemoryStorageConversationLog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	require.NoError(t, store.SaveConversationEntry(ctx, "u1", "acme", "What are your hours?", models.RoleUser))
	require.NoError(t, store.SaveConversationEntry(ctx, "u1", "acme", "We are open 9-5.", models.RoleAssistant))
	require.NoError(t, store.SaveConversationEntry(ctx, "u2", "acme", "unrelated", models.RoleUser))

	entries := store.Conversations("u1")
	require.Len(t, entries, 2)
	assert.Equal(t, models.RoleUser, entries[0].Role)
	assert.Equal(t, "What are your hours?", entries[0].Content)
	assert.Equal(t, models.RoleAssistant, entries[1].Role)
	assert.Equal(t, "We are open 9-5.", entries[1].Content)
}
