package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-sales-tracker/internal/transport/http/ez"
)

const HeaderRequestID = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Set(ez.KeyRID, rid)
		c.Next()
	}
}
