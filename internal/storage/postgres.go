package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/xaenox/assistant-gateway/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	storage := &PostgresStorage{db: db}

	// Initialize database schema
	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

func (s *PostgresStorage) EnsureCustomer(ctx context.Context, customerID string) error {
	query := `
		INSERT INTO customers (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, customerID); err != nil {
		return fmt.Errorf("error ensuring customer: %v", err)
	}
	return nil
}

func (s *PostgresStorage) EnsureUser(ctx context.Context, userID, customerID string) error {
	query := `
		INSERT INTO users (id, customer_id)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, userID, customerID); err != nil {
		return fmt.Errorf("error ensuring user: %v", err)
	}
	return nil
}

func (s *PostgresStorage) EnsureThread(ctx context.Context, userID, customerID, threadID string) error {
	query := `
		INSERT INTO threads (user_id, customer_id, thread_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, userID, customerID, threadID); err != nil {
		return fmt.Errorf("error ensuring thread: %v", err)
	}
	return nil
}

func (s *PostgresStorage) GetThreadByUserID(ctx context.Context, userID string) (string, error) {
	query := `
		UPDATE threads
		SET last_used_at = now()
		WHERE user_id = $1
		RETURNING thread_id`

	var threadID string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&threadID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error querying thread: %v", err)
	}
	return threadID, nil
}

func (s *PostgresStorage) SaveConversationEntry(ctx context.Context, userID, customerID, content string, role models.Role) error {
	query := `
		INSERT INTO conversations (user_id, customer_id, role, content)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query, userID, customerID, string(role), content); err != nil {
		return fmt.Errorf("error saving conversation entry: %v", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
