package models

import "time"

// Role labels one side of a conversation exchange.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Customer is a tenant organization. Created lazily on first request.
type Customer struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an end user scoped to a customer.
type User struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Thread maps a user to their remote assistant conversation thread.
// One thread per user for its whole lifetime.
type Thread struct {
	UserID     string    `json:"user_id"`
	CustomerID string    `json:"customer_id"`
	ThreadID   string    `json:"thread_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Conversation is one append-only entry of an exchange, either the
// user's query or the assistant's answer.
type Conversation struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	CustomerID string    `json:"customer_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
