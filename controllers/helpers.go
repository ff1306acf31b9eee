package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/opentalk/forum/middleware"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// viewerID returns the optional viewer identity set by OptionalAuth. A nil
// result means the request is anonymous.
func viewerID(ctx *gin.Context) *uint {
	if id, ok := getUserID(ctx); ok {
		return &id
	}
	return nil
}
