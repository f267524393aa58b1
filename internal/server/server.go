package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xaenox/assistant-gateway/internal/completion"
	"github.com/xaenox/assistant-gateway/internal/tenant"
)

type Server struct {
	router  *gin.Engine
	service *completion.Service
	logger  *zap.Logger
}

func New(service *completion.Service, resolver *tenant.Resolver, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		logger:  logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	router.GET("/healthcheck", s.handleHealthCheck)

	api := router.Group("/api")
	api.Use(RequireCustomerAuth(resolver, logger))
	api.POST("/assistant/complete", s.handleAssistantComplete)

	s.router = router
	return s
}

// Router exposes the handler for tests and custom http.Server setups.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Run(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type completeRequest struct {
	UserID string `json:"userId" binding:"required"`
	Query  string `json:"query" binding:"required"`
}

// handleAssistantComplete answers with the assistant's reply as a JSON
// string, or JSON null when no answer could be produced. Failure
// classes are distinguished in the logs, not in the response body.
func (s *Server) handleAssistantComplete(c *gin.Context) {
	customerID := c.GetString(customerIDKey)

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and query are required"})
		return
	}

	answer, err := s.service.Complete(c.Request.Context(), customerID, req.UserID, req.Query)
	if err != nil {
		s.logger.Error("Assistant completion failed",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("user_id", req.UserID),
			zap.String("query", req.Query))
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, answer)
}
