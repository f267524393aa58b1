package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/assistant-gateway/internal/assistant"
	"github.com/xaenox/assistant-gateway/internal/completion"
	"github.com/xaenox/assistant-gateway/internal/storage"
	"github.com/xaenox/assistant-gateway/internal/tenant"
	"github.com/xaenox/assistant-gateway/pkg/config"
)

type stubAssistant struct {
	answer string
	err    error
}

func (s *stubAssistant) CreateThread(ctx context.Context, customerID, userID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "thread_abc", nil
}

func (s *stubAssistant) PostMessage(ctx context.Context, customerID, userID, threadID, query string) (string, error) {
	return "msg_1", s.err
}

func (s *stubAssistant) StartRun(ctx context.Context, customerID, userID, threadID string) (string, error) {
	return "run_1", s.err
}

func (s *stubAssistant) AwaitRun(ctx context.Context, customerID, userID, threadID, runID string) error {
	return s.err
}

func (s *stubAssistant) ListMessages(ctx context.Context, customerID, userID, threadID string) (openai.MessagesList, error) {
	firstID := "msg_2"
	return openai.MessagesList{
		FirstID: &firstID,
		Messages: []openai.Message{{
			ID:   "msg_2",
			Role: openai.ChatMessageRoleAssistant,
			Content: []openai.MessageContent{{
				Type: "text",
				Text: &openai.MessageText{Value: s.answer},
			}},
		}},
	}, nil
}

func newTestServer(t *testing.T, stub *stubAssistant) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver, err := tenant.NewResolver([]config.CustomerConfig{{
		ID:                "acme",
		APIKey:            "tenant-key",
		OpenAIAPIKey:      "sk-test",
		OpenAIOrg:         "org-test",
		OpenAIAssistantID: "asst_1",
	}})
	require.NoError(t, err)

	service := completion.NewService(stub, storage.NewMemoryStorage(), zap.NewNop())
	return New(service, resolver, zap.NewNop())
}

func doRequest(srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func authHeaders() map[string]string {
	return map[string]string{
		"x-customer-id": "acme",
		"x-api-key":     "tenant-key",
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})

	w := doRequest(srv, http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompleteRequiresAuth(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{answer: "hi"})
	body := `{"userId":"u1","query":"What are your hours?"}`

	w := doRequest(srv, http.MethodPost, "/api/assistant/complete", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(srv, http.MethodPost, "/api/assistant/complete", body, map[string]string{
		"x-customer-id": "acme",
		"x-api-key":     "wrong-key",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(srv, http.MethodPost, "/api/assistant/complete", body, map[string]string{
		"x-customer-id": "nobody",
		"x-api-key":     "tenant-key",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCompleteReturnsAnswer(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{answer: "We are open 9-5."})
	body := `{"userId":"u1","query":"What are your hours?"}`

	w := doRequest(srv, http.MethodPost, "/api/assistant/complete", body, authHeaders())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"We are open 9-5."`, w.Body.String())
}

func TestCompleteReturnsNullOnFailure(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{err: assistant.ErrRunTimeout})
	body := `{"userId":"u1","query":"What are your hours?"}`

	w := doRequest(srv, http.MethodPost, "/api/assistant/complete", body, authHeaders())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestCompleteRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{answer: "hi"})

	w := doRequest(srv, http.MethodPost, "/api/assistant/complete", `{"userId":"u1"}`, authHeaders())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(srv, http.MethodPost, "/api/assistant/complete", `not json`, authHeaders())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
