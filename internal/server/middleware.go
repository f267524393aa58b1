package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/assistant-gateway/internal/tenant"
)

const customerIDKey = "customer_id"

// RequestLogger tags every request with a uuid and logs method, path,
// status and duration once the handler chain finishes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set("request_id", requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// RequireCustomerAuth authenticates the tenant from the x-customer-id
// and x-api-key headers against the credential table and stashes the
// customer id in the request context.
func RequireCustomerAuth(resolver *tenant.Resolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetHeader("x-customer-id")
		apiKey := c.GetHeader("x-api-key")
		if customerID == "" || apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		creds, ok := resolver.Resolve(customerID)
		if !ok || subtle.ConstantTimeCompare([]byte(creds.APIKey), []byte(apiKey)) != 1 {
			logger.Warn("Rejected request with invalid credentials",
				zap.String("customer_id", customerID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(customerIDKey, customerID)
		c.Next()
	}
}
