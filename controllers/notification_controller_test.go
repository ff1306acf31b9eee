package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/opentalk/forum/models"
)

func notificationRouter(db *gorm.DB, user models.User) *gin.Engine {
	r := gin.New()
	nc := NewNotificationController(db)
	r.GET("/api/notifications", authAs(user), nc.ListNotifications)
	r.POST("/api/notifications/:id/read", authAs(user), nc.MarkRead)
	return r
}

func seedNotification(t *testing.T, db *gorm.DB, user models.User) models.Notification {
	t.Helper()
	n := models.Notification{
		UserID:   user.ID,
		Type:     models.NotificationReply,
		SourceID: 1,
		Message:  "someone replied",
	}
	require.NoError(t, db.Create(&n).Error)
	return n
}

func TestListNotifications(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner", models.RoleUser)
	other := seedUser(t, db, "other", models.RoleUser)
	seedNotification(t, db, owner)
	seedNotification(t, db, owner)
	seedNotification(t, db, other)

	w := doJSON(t, notificationRouter(db, owner), http.MethodGet, "/api/notifications", nil)
	requireStatus(t, w, http.StatusOK)
	data := decodeData(t, w)

	assert.Len(t, data["items"].([]interface{}), 2)
	assert.EqualValues(t, 2, data["unread"])
}

func TestMarkNotificationRead(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner", models.RoleUser)
	n := seedNotification(t, db, owner)

	w := doJSON(t, notificationRouter(db, owner), http.MethodPost,
		fmt.Sprintf("/api/notifications/%d/read", n.ID), nil)
	requireStatus(t, w, http.StatusOK)

	var fresh models.Notification
	require.NoError(t, db.First(&fresh, n.ID).Error)
	assert.True(t, fresh.IsRead)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner", models.RoleUser)
	intruder := seedUser(t, db, "intruder", models.RoleUser)
	n := seedNotification(t, db, owner)

	w := doJSON(t, notificationRouter(db, intruder), http.MethodPost,
		fmt.Sprintf("/api/notifications/%d/read", n.ID), nil)
	requireStatus(t, w, http.StatusNotFound)

	var fresh models.Notification
	require.NoError(t, db.First(&fresh, n.ID).Error)
	assert.False(t, fresh.IsRead)
}
