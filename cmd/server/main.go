package main

import (
	"github.com/xaenox/assistant-gateway/internal/assistant"
	"github.com/xaenox/assistant-gateway/internal/completion"
	"github.com/xaenox/assistant-gateway/internal/server"
	"github.com/xaenox/assistant-gateway/internal/storage"
	"github.com/xaenox/assistant-gateway/internal/tenant"
	"github.com/xaenox/assistant-gateway/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration; a malformed customer credential list is fatal
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Build the immutable credential table
	resolver, err := tenant.NewResolver(cfg.Customers)
	if err != nil {
		logger.Fatal("Failed to build credential table", zap.Error(err))
	}

	// Remote thread client and orchestrator
	client := assistant.New(resolver, logger, assistant.Options{})
	service := completion.NewService(client, store, logger)

	// Start the HTTP server
	srv := server.New(service, resolver, logger)
	logger.Info("Starting server",
		zap.Int("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Environment),
		zap.Int("customers", len(cfg.Customers)))
	if err := srv.Run(cfg.Server.Port); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
