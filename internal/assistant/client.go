package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/assistant-gateway/internal/tenant"
)

// Outcome classes of a completion attempt. Callers match these with
// errors.Is instead of collapsing every failure into a nil answer.
var (
	// ErrUnknownTenant means no credentials are registered for the
	// customer id. Expected, and returned before any network call.
	ErrUnknownTenant = errors.New("assistant: unknown tenant")
	// ErrRunFailed means the remote run reached a terminal failure
	// state (cancelled, cancelling, failed, expired).
	ErrRunFailed = errors.New("assistant: run failed")
	// ErrRunTimeout means the run was still not terminal after the
	// polling attempt cap.
	ErrRunTimeout = errors.New("assistant: timed out waiting for run")
	// ErrNoAnswer means the thread's most recent message is not a
	// usable assistant text reply.
	ErrNoAnswer = errors.New("assistant: no assistant answer found")
)

const (
	defaultPollInterval    = time.Second
	defaultMaxPollAttempts = 10
)

// Client drives the Assistants run-completion protocol for every
// registered tenant:
//
//	CreateThread -> PostMessage -> StartRun -> AwaitRun -> ListMessages -> ExtractAnswer
//
// One openai.Client per tenant is built at construction and reused;
// the table is immutable afterwards.
type Client struct {
	clients         map[string]*openai.Client
	assistants      map[string]string
	logger          *zap.Logger
	pollInterval    time.Duration
	maxPollAttempts int
}

// Options tunes the client. Zero values select production defaults.
type Options struct {
	// BaseURL overrides the OpenAI endpoint, used by tests to point
	// the client at a fake backend.
	BaseURL string
	// PollInterval is the delay before every run status check,
	// including the first.
	PollInterval time.Duration
	// MaxPollAttempts caps the number of status checks per run.
	MaxPollAttempts int
}

func New(resolver *tenant.Resolver, logger *zap.Logger, opts Options) *Client {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = defaultMaxPollAttempts
	}

	clients := make(map[string]*openai.Client)
	assistants := make(map[string]string)
	for _, id := range resolver.IDs() {
		creds, _ := resolver.Resolve(id)
		cfg := openai.DefaultConfig(creds.OpenAIKey)
		cfg.OrgID = creds.OpenAIOrg
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		clients[id] = openai.NewClientWithConfig(cfg)
		assistants[id] = creds.AssistantID
	}

	return &Client{
		clients:         clients,
		assistants:      assistants,
		logger:          logger,
		pollInterval:    opts.PollInterval,
		maxPollAttempts: opts.MaxPollAttempts,
	}
}

func (c *Client) tenantClient(customerID string) (*openai.Client, error) {
	client, ok := c.clients[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, customerID)
	}
	return client, nil
}

// CreateThread creates a fresh remote conversation thread for the
// user, tagged with the customer and user ids for remote-side
// debugging. Called once per user; the returned id is persisted and
// reused afterwards.
func (c *Client) CreateThread(ctx context.Context, customerID, userID string) (string, error) {
	client, err := c.tenantClient(customerID)
	if err != nil {
		return "", err
	}

	thread, err := client.CreateThread(ctx, openai.ThreadRequest{
		Metadata: map[string]any{
			"customer_id": customerID,
			"user_id":     userID,
		},
	})
	if err != nil {
		c.logger.Error("Failed to create thread",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("user_id", userID))
		return "", fmt.Errorf("creating thread: %w", err)
	}

	c.logger.Info("Created thread",
		zap.String("thread_id", thread.ID),
		zap.String("customer_id", customerID),
		zap.String("user_id", userID))
	return thread.ID, nil
}

// PostMessage appends the user's query to the thread.
func (c *Client) PostMessage(ctx context.Context, customerID, userID, threadID, query string) (string, error) {
	client, err := c.tenantClient(customerID)
	if err != nil {
		return "", err
	}

	msg, err := client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: query,
	})
	if err != nil {
		c.logger.Error("Failed to post message",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("user_id", userID),
			zap.String("thread_id", threadID))
		return "", fmt.Errorf("posting message: %w", err)
	}

	return msg.ID, nil
}

// StartRun asks the tenant's assistant to process the thread's pending
// messages and returns the run id to poll.
func (c *Client) StartRun(ctx context.Context, customerID, userID, threadID string) (string, error) {
	client, err := c.tenantClient(customerID)
	if err != nil {
		return "", err
	}

	run, err := client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: c.assistants[customerID],
	})
	if err != nil {
		c.logger.Error("Failed to start run",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("user_id", userID),
			zap.String("thread_id", threadID))
		return "", fmt.Errorf("starting run: %w", err)
	}

	c.logger.Info("Started run",
		zap.String("run_id", run.ID),
		zap.String("thread_id", threadID),
		zap.String("customer_id", customerID))
	return run.ID, nil
}

// AwaitRun polls the run until it reaches a terminal state, waiting
// pollInterval before every status check including the first. A run
// still pending after maxPollAttempts checks is reported as
// ErrRunTimeout; unknown statuses (queued, in_progress, and anything
// the API grows later) just keep polling.
func (c *Client) AwaitRun(ctx context.Context, customerID, userID, threadID, runID string) error {
	client, err := c.tenantClient(customerID)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		run, err := client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			c.logger.Error("Failed to retrieve run",
				zap.Error(err),
				zap.String("customer_id", customerID),
				zap.String("user_id", userID),
				zap.String("run_id", runID))
			return fmt.Errorf("retrieving run: %w", err)
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			c.logger.Info("Run completed",
				zap.String("run_id", runID),
				zap.String("customer_id", customerID),
				zap.Int("attempts", attempt))
			return nil
		case openai.RunStatusCancelled, openai.RunStatusCancelling,
			openai.RunStatusFailed, openai.RunStatusExpired:
			c.logger.Error("Run ended without completing",
				zap.String("run_id", runID),
				zap.String("status", string(run.Status)),
				zap.String("customer_id", customerID))
			return fmt.Errorf("%w: status %s", ErrRunFailed, run.Status)
		}
	}

	c.logger.Error("Timed out polling for run completion",
		zap.String("run_id", runID),
		zap.String("customer_id", customerID),
		zap.Int("attempts", c.maxPollAttempts))
	return ErrRunTimeout
}

// ListMessages fetches the thread's messages, most recent first.
func (c *Client) ListMessages(ctx context.Context, customerID, userID, threadID string) (openai.MessagesList, error) {
	client, err := c.tenantClient(customerID)
	if err != nil {
		return openai.MessagesList{}, err
	}

	list, err := client.ListMessage(ctx, threadID, nil, nil, nil, nil, nil)
	if err != nil {
		c.logger.Error("Failed to list messages",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("user_id", userID),
			zap.String("thread_id", threadID))
		return openai.MessagesList{}, fmt.Errorf("listing messages: %w", err)
	}

	return list, nil
}

// ExtractAnswer pulls the assistant's reply out of a message list: the
// message whose id matches first_id must exist, have the assistant
// role, and carry a text content block. Anything else is a reportable
// ErrNoAnswer, not a transport failure — the assistant may legitimately
// have replied with an image or nothing at all.
func ExtractAnswer(list openai.MessagesList) (string, error) {
	if list.FirstID == nil {
		return "", fmt.Errorf("%w: message list has no first_id", ErrNoAnswer)
	}

	var latest *openai.Message
	for i := range list.Messages {
		if list.Messages[i].ID == *list.FirstID {
			latest = &list.Messages[i]
			break
		}
	}
	if latest == nil {
		return "", fmt.Errorf("%w: most recent message %s not in list", ErrNoAnswer, *list.FirstID)
	}

	if latest.Role != openai.ChatMessageRoleAssistant {
		return "", fmt.Errorf("%w: most recent message has role %s", ErrNoAnswer, latest.Role)
	}
	if len(latest.Content) == 0 {
		return "", fmt.Errorf("%w: assistant message has no content", ErrNoAnswer)
	}

	content := latest.Content[0]
	if content.Type != "text" || content.Text == nil {
		return "", fmt.Errorf("%w: assistant message content is %s, not text", ErrNoAnswer, content.Type)
	}

	return content.Text.Value, nil
}
