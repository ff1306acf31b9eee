package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	sqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opentalk/forum/config"
	"github.com/opentalk/forum/middleware"
	"github.com/opentalk/forum/models"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "100000")
	// Keep Redis out of the picture so list caching cannot leak between tests.
	os.Setenv("REDIS_PORT", "1")
	config.Load()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupTestDB opens a private in-memory database with foreign keys enforced,
// mirroring the cascade behavior the handlers rely on in production.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCategory(t *testing.T, db *gorm.DB) models.Category {
	t.Helper()
	category := models.Category{Name: "General", Slug: "general"}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedThread(t *testing.T, db *gorm.DB, author models.User, category models.Category) models.Thread {
	t.Helper()
	thread := models.Thread{
		UserID:     author.ID,
		CategoryID: category.ID,
		Title:      "Test thread",
		Content:    "<p>body</p>",
	}
	require.NoError(t, db.Create(&thread).Error)
	return thread
}

// seedReplies creates n replies with strictly increasing creation times so
// ordering assertions are deterministic.
func seedReplies(t *testing.T, db *gorm.DB, thread models.Thread, author models.User, n int) []models.Reply {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	replies := make([]models.Reply, 0, n)
	for i := 0; i < n; i++ {
		reply := models.Reply{
			ThreadID:  thread.ID,
			UserID:    author.ID,
			Content:   fmt.Sprintf("reply %d", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&reply).Error)
		replies = append(replies, reply)
	}
	return replies
}

// authAs injects a session identity the way the auth middleware would.
func authAs(user models.User) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, user.ID)
		ctx.Set(middleware.ContextUsernameKey, user.Username)
		ctx.Set(middleware.ContextRoleKey, user.Role)
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
