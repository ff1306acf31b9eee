package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opentalk/forum/config"
	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "100000")
	os.Setenv("REDIS_PORT", "1")
	os.Setenv("GIN_MODE", "test")
	config.Load()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupRouterDB(t *testing.T) (*gin.Engine, *gorm.DB) {
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
	return SetupRouter(db), db
}

func createUser(t *testing.T, db *gorm.DB, username, role string) models.User {
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

// sessionCookie mints a real signed token for the user, the same way login does.
func sessionCookie(t *testing.T, user models.User) *http.Cookie {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: utils.SessionCookieName, Value: token}
}

func do(r *gin.Engine, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireSession(t *testing.T) {
	r, _ := setupRouterDB(t)

	w := do(r, http.MethodPut, "/admin/posts/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodDelete, "/admin/posts/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	r, db := setupRouterDB(t)
	user := createUser(t, db, "plain", models.RoleUser)

	w := do(r, http.MethodPut, "/admin/posts/1", sessionCookie(t, user))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRoutesAcceptAdmin(t *testing.T) {
	r, db := setupRouterDB(t)
	admin := createUser(t, db, "boss", models.RoleAdmin)

	// Past the gates; the missing thread is the handler's answer.
	w := do(r, http.MethodDelete, "/admin/posts/9999", sessionCookie(t, admin))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r, _ := setupRouterDB(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/threads/1/react", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/notifications", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/posts", nil).Code)
}

func TestExpiredSessionRejected(t *testing.T) {
	r, db := setupRouterDB(t)
	user := createUser(t, db, "latecomer", models.RoleUser)

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, -time.Minute)
	require.NoError(t, err)
	cookie := &http.Cookie{Name: utils.SessionCookieName, Value: token}

	w := do(r, http.MethodGet, "/api/notifications", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserStatus(t *testing.T) {
	r, db := setupRouterDB(t)
	user := createUser(t, db, "watcher", models.RoleUser)

	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var envelope struct {
			Data map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		return envelope.Data
	}

	w := do(r, http.MethodGet, "/api/user-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(w)["authenticated"])

	w = do(r, http.MethodGet, "/api/user-status", sessionCookie(t, user))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(w)
	require.Equal(t, true, data["authenticated"])
	assert.Equal(t, "watcher", data["user"].(map[string]interface{})["username"])
}

func TestBearerHeaderFallback(t *testing.T) {
	r, db := setupRouterDB(t)
	user := createUser(t, db, "apiclient", models.RoleUser)

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	r, _ := setupRouterDB(t)
	w := do(r, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := setupRouterDB(t)
	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
