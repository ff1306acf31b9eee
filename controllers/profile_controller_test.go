package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/opentalk/forum/models"
)

func profileRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	pc := NewProfileController(db)
	r.GET("/api/profile/:username", pc.GetProfile)
	return r
}

func TestGetProfileWithRecentActivity(t *testing.T) {
	db := setupTestDB(t)
	author := seedUser(t, db, "author", models.RoleUser)
	replier := seedUser(t, db, "replier", models.RoleUser)
	thread := seedThread(t, db, author, seedCategory(t, db))
	seedReplies(t, db, thread, replier, 15)

	w := doJSON(t, profileRouter(db), http.MethodGet, "/api/profile/replier", nil)
	requireStatus(t, w, http.StatusOK)
	data := decodeData(t, w)

	user := data["user"].(map[string]interface{})
	assert.Equal(t, "replier", user["username"])
	// Password material must never leak through the profile.
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "email")

	recent := data["recent_replies"].([]interface{})
	require.Len(t, recent, recentActivityLimit)
	newest := recent[0].(map[string]interface{})
	assert.Equal(t, thread.Title, newest["thread_title"])
	assert.Equal(t, "reply 15", newest["content"])
}

func TestGetProfileUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	w := doJSON(t, profileRouter(db), http.MethodGet, "/api/profile/ghost", nil)
	requireStatus(t, w, http.StatusNotFound)
}
