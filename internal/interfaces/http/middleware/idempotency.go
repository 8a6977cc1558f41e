package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader is the header clients send to deduplicate retried
// mutations
const IdempotencyKeyHeader = "Idempotency-Key"

// Idempotency rejects a repeated mutation carrying an already-seen
// Idempotency-Key. The key is marked before the handler runs: a request that
// fails downstream stays marked, and the client retries with a fresh key
// after re-reading state. Requests without the header pass through; the
// domain-level reference idempotency still protects them.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		fresh, err := store.MarkProcessed(c.Request.Context(), key, ttl)
		if err != nil {
			// the store being down must not block order flow
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
				"DUPLICATE_REQUEST",
				"A request with this idempotency key was already processed",
				c.GetString("request_id"),
			))
			return
		}
		c.Next()
	}
}
