package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextRoleKey stores the role carried by the session token.
	ContextRoleKey = "role"
)

// sessionToken extracts the session token from the cookie, falling back to a
// bearer Authorization header for non-browser clients.
func sessionToken(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(utils.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthRequired ensures the request carries a valid, unexpired session token.
// The gate fails closed: anything short of a verified token is a 401.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := sessionToken(ctx)
		if token == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(token) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "session revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid or expired session")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Next()
	}
}

// AdminRequired checks the role established by AuthRequired. Authenticated but
// non-admin callers get a 403. Admin operations are never owner-scoped.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role, _ := ctx.Get(ContextRoleKey)
		if role != models.RoleAdmin {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// OptionalAuth populates viewer identity when a valid session is present but
// never rejects the request. Used on read-only endpoints that personalize
// their response for logged-in viewers.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := sessionToken(ctx)
		if token == "" || utils.IsTokenBlacklisted(token) {
			ctx.Next()
			return
		}
		if claims, err := utils.ParseToken(token); err == nil {
			ctx.Set(ContextUserIDKey, claims.UserID)
			ctx.Set(ContextUsernameKey, claims.Username)
			ctx.Set(ContextRoleKey, claims.Role)
		}
		ctx.Next()
	}
}
