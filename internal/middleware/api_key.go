package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
)

// APIKeyHeader carries the ingest key on bank-sync requests.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware guards machine-to-machine endpoints with a shared key.
// With no key configured the endpoints are disabled.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrIngestNotConfigured)
			return
		}
		key := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
