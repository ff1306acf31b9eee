package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a request id to every response so access logs can be
// correlated with client reports. An inbound id from a trusted proxy is kept.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rid := ctx.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx.Writer.Header().Set(requestIDHeader, rid)
		ctx.Next()
	}
}
