package storage

import (
	"context"
	"sync"
	"time"

	"github.com/xaenox/assistant-gateway/internal/models"
)

// MemoryStorage is an in-memory Storage for development and tests.
type MemoryStorage struct {
	mu            sync.RWMutex
	customers     map[string]*models.Customer
	users         map[string]*models.User
	threads       map[string]*models.Thread
	conversations []models.Conversation
	nextID        int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		customers: make(map[string]*models.Customer),
		users:     make(map[string]*models.User),
		threads:   make(map[string]*models.Thread),
		nextID:    1,
	}
}

func (s *MemoryStorage) EnsureCustomer(ctx context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[customerID]; !exists {
		s.customers[customerID] = &models.Customer{
			ID:        customerID,
			CreatedAt: time.Now(),
		}
	}
	return nil
}

func (s *MemoryStorage) EnsureUser(ctx context.Context, userID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[userID]; !exists {
		s.users[userID] = &models.User{
			ID:         userID,
			CustomerID: customerID,
			CreatedAt:  time.Now(),
		}
	}
	return nil
}

func (s *MemoryStorage) EnsureThread(ctx context.Context, userID, customerID, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.threads[userID]; !exists {
		s.threads[userID] = &models.Thread{
			UserID:     userID,
			CustomerID: customerID,
			ThreadID:   threadID,
			CreatedAt:  time.Now(),
			LastUsedAt: time.Now(),
		}
	}
	return nil
}

func (s *MemoryStorage) GetThreadByUserID(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if thread, exists := s.threads[userID]; exists {
		thread.LastUsedAt = time.Now()
		return thread.ThreadID, nil
	}
	return "", nil
}

func (s *MemoryStorage) SaveConversationEntry(ctx context.Context, userID, customerID, content string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = append(s.conversations, models.Conversation{
		ID:         s.nextID,
		UserID:     userID,
		CustomerID: customerID,
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now(),
	})
	s.nextID++
	return nil
}

// Conversations returns a copy of the conversation log for a user.
func (s *MemoryStorage) Conversations(userID string) []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			entries = append(entries, c)
		}
	}
	return entries
}

// HasCustomer reports whether a customer record exists.
func (s *MemoryStorage) HasCustomer(customerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.customers[customerID]
	return exists
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
