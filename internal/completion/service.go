package completion

import (
	"context"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/assistant-gateway/internal/assistant"
	"github.com/xaenox/assistant-gateway/internal/models"
	"github.com/xaenox/assistant-gateway/internal/storage"
)

// AssistantClient is the slice of the remote thread client the
// orchestrator needs.
type AssistantClient interface {
	CreateThread(ctx context.Context, customerID, userID string) (string, error)
	PostMessage(ctx context.Context, customerID, userID, threadID, query string) (string, error)
	StartRun(ctx context.Context, customerID, userID, threadID string) (string, error)
	AwaitRun(ctx context.Context, customerID, userID, threadID, runID string) error
	ListMessages(ctx context.Context, customerID, userID, threadID string) (openai.MessagesList, error)
}

// Service composes the credential-backed assistant client and the
// persistence gateway into one synchronous query/answer exchange.
type Service struct {
	assistant AssistantClient
	storage   storage.Storage
	logger    *zap.Logger
}

func NewService(client AssistantClient, store storage.Storage, logger *zap.Logger) *Service {
	return &Service{
		assistant: client,
		storage:   store,
		logger:    logger,
	}
}

// Complete runs one user query through the remote assistant and
// returns the answer text. The error carries the failure class
// (assistant.ErrUnknownTenant, ErrRunFailed, ErrRunTimeout,
// ErrNoAnswer, or a transport/persistence error); the HTTP boundary
// collapses all of them to a null answer.
//
// Remote side effects and local persistence are not transactional:
// once the remote exchange succeeds, conversation-log writes are
// best-effort and never roll the answer back.
func (s *Service) Complete(ctx context.Context, customerID, userID, query string) (string, error) {
	s.logger.Info("Handling assistant completion",
		zap.String("customer_id", customerID),
		zap.String("user_id", userID))

	if err := s.storage.EnsureCustomer(ctx, customerID); err != nil {
		s.logger.Error("Failed to ensure customer",
			zap.Error(err),
			zap.String("customer_id", customerID))
		return "", err
	}

	threadID, err := s.storage.GetThreadByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to look up thread",
			zap.Error(err),
			zap.String("user_id", userID))
		return "", err
	}

	if threadID == "" {
		threadID, err = s.assistant.CreateThread(ctx, customerID, userID)
		if err != nil {
			return "", err
		}
		if err := s.storage.EnsureUser(ctx, userID, customerID); err != nil {
			s.logger.Error("Failed to ensure user",
				zap.Error(err),
				zap.String("user_id", userID))
			return "", err
		}
		if err := s.storage.EnsureThread(ctx, userID, customerID, threadID); err != nil {
			s.logger.Error("Failed to ensure thread",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("thread_id", threadID))
			return "", err
		}
	}

	if _, err := s.assistant.PostMessage(ctx, customerID, userID, threadID, query); err != nil {
		return "", err
	}

	runID, err := s.assistant.StartRun(ctx, customerID, userID, threadID)
	if err != nil {
		return "", err
	}

	if err := s.assistant.AwaitRun(ctx, customerID, userID, threadID, runID); err != nil {
		return "", err
	}

	list, err := s.assistant.ListMessages(ctx, customerID, userID, threadID)
	if err != nil {
		return "", err
	}

	answer, err := assistant.ExtractAnswer(list)
	if err != nil {
		s.logger.Error("Failed to extract assistant answer",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("user_id", userID),
			zap.String("thread_id", threadID))
		return "", err
	}

	// Best-effort: a failed log write must not discard an answer the
	// remote side already produced.
	if err := s.storage.SaveConversationEntry(ctx, userID, customerID, query, models.RoleUser); err != nil {
		s.logger.Error("Failed to save user query",
			zap.Error(err),
			zap.String("user_id", userID))
	}
	if err := s.storage.SaveConversationEntry(ctx, userID, customerID, answer, models.RoleAssistant); err != nil {
		s.logger.Error("Failed to save assistant answer",
			zap.Error(err),
			zap.String("user_id", userID))
	}

	return answer, nil
}
