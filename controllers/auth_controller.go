package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opentalk/forum/config"
	"github.com/opentalk/forum/middleware"
	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

// AuthController handles registration, login and session state.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type publicUser struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url"`
	Title     string    `json:"title"`
	PostCount int       `json:"post_count"`
	JoinedAt  time.Time `json:"joined_at"`
}

func toPublicUser(u models.User) publicUser {
	return publicUser{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		Title:     u.Title,
		PostCount: u.PostCount,
		JoinedAt:  u.CreatedAt,
	}
}

// Register handles local account registration with bcrypt hashing. New users
// always start as role user with a zero post count.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=72"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := utils.SanitizeStrict(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username cannot be empty")
		return
	}

	var existing models.User
	err := a.db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "username or email already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ServerError(ctx, 50001, "failed to check existing user", err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ServerError(ctx, 50002, "failed to hash password", err)
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// The unique constraints win any check-then-act race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "username or email already exists")
			return
		}
		utils.ServerError(ctx, 50003, "failed to create user", err)
		return
	}

	utils.Success(ctx, gin.H{"user": toPublicUser(user)})
}

// Login verifies credentials and issues the session cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	var user models.User
	err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
			return
		}
		utils.ServerError(ctx, 50010, "failed to load user", err)
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
		return
	}

	ttl := time.Duration(config.Get().SessionTTLMinutes) * time.Minute
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, ttl)
	if err != nil {
		utils.ServerError(ctx, 50011, "failed to issue session token", err)
		return
	}
	utils.SetSessionCookie(ctx, token, ttl)

	utils.Success(ctx, gin.H{"user": toPublicUser(user), "token": token})
}

// Logout revokes the current session token (when present) and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, err := ctx.Cookie(utils.SessionCookieName); err == nil && token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.ClearSessionCookie(ctx)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// UserStatus reports the current session identity and role, or anonymous.
func (a *AuthController) UserStatus(ctx *gin.Context) {
	id, ok := getUserID(ctx)
	if !ok {
		utils.Success(ctx, gin.H{"authenticated": false})
		return
	}
	username, _ := ctx.Get(middleware.ContextUsernameKey)
	role, _ := ctx.Get(middleware.ContextRoleKey)
	utils.Success(ctx, gin.H{
		"authenticated": true,
		"user": gin.H{
			"id":       id,
			"username": username,
			"role":     role,
		},
	})
}
