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

func adminRouter(db *gorm.DB, admin models.User) *gin.Engine {
	r := gin.New()
	ac := NewAdminController(db)
	group := r.Group("/admin", authAs(admin))
	group.PUT("/posts/:id", ac.UpdateModeration)
	group.DELETE("/posts/:id", ac.DeleteThread)
	group.PUT("/posts/:id/best-reply", ac.SetBestReply)
	group.DELETE("/replies/:id", ac.DeleteReply)
	return r
}

func TestUpdateModerationPinAndLock(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	thread := seedThread(t, db, author, seedCategory(t, db))
	r := adminRouter(db, admin)

	path := fmt.Sprintf("/admin/posts/%d", thread.ID)
	w := doJSON(t, r, http.MethodPut, path, gin.H{"is_pinned": true, "is_locked": true})
	requireStatus(t, w, http.StatusOK)

	var fresh models.Thread
	require.NoError(t, db.First(&fresh, thread.ID).Error)
	assert.True(t, fresh.IsPinned)
	assert.True(t, fresh.IsLocked)

	// Absent fields stay untouched.
	w = doJSON(t, r, http.MethodPut, path, gin.H{"is_pinned": false})
	requireStatus(t, w, http.StatusOK)
	require.NoError(t, db.First(&fresh, thread.ID).Error)
	assert.False(t, fresh.IsPinned)
	assert.True(t, fresh.IsLocked)
}

func TestUpdateModerationEmptyPayload(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	thread := seedThread(t, db, author, seedCategory(t, db))

	w := doJSON(t, adminRouter(db, admin), http.MethodPut,
		fmt.Sprintf("/admin/posts/%d", thread.ID), gin.H{})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestSetBestReply(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	replier := seedUser(t, db, "replier", models.RoleUser)
	thread := seedThread(t, db, author, seedCategory(t, db))
	replies := seedReplies(t, db, thread, replier, 3)

	w := doJSON(t, adminRouter(db, admin), http.MethodPut,
		fmt.Sprintf("/admin/posts/%d/best-reply", thread.ID),
		gin.H{"reply_id": replies[1].ID})
	requireStatus(t, w, http.StatusOK)

	var fresh models.Thread
	require.NoError(t, db.First(&fresh, thread.ID).Error)
	require.NotNil(t, fresh.BestReplyID)
	assert.Equal(t, replies[1].ID, *fresh.BestReplyID)

	// The reply author is told about the promotion.
	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", replier.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationBestReply, notifications[0].Type)

	// Last writer wins: the slot is overwritable.
	w = doJSON(t, adminRouter(db, admin), http.MethodPut,
		fmt.Sprintf("/admin/posts/%d/best-reply", thread.ID),
		gin.H{"reply_id": replies[2].ID})
	requireStatus(t, w, http.StatusOK)
	require.NoError(t, db.First(&fresh, thread.ID).Error)
	require.NotNil(t, fresh.BestReplyID)
	assert.Equal(t, replies[2].ID, *fresh.BestReplyID)
}

func TestSetBestReplyFromAnotherThread(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	category := seedCategory(t, db)
	target := seedThread(t, db, author, category)
	other := seedThread(t, db, author, category)
	foreign := seedReplies(t, db, other, author, 1)

	w := doJSON(t, adminRouter(db, admin), http.MethodPut,
		fmt.Sprintf("/admin/posts/%d/best-reply", target.ID),
		gin.H{"reply_id": foreign[0].ID})
	requireStatus(t, w, http.StatusNotFound)

	var fresh models.Thread
	require.NoError(t, db.First(&fresh, target.ID).Error)
	assert.Nil(t, fresh.BestReplyID)
}

func TestDeleteThreadCascades(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	viewer := seedUser(t, db, "viewer", models.RoleUser)
	thread := seedThread(t, db, author, seedCategory(t, db))
	replies := seedReplies(t, db, thread, author, 3)
	require.NoError(t, db.Create(&models.ThreadReaction{UserID: viewer.ID, ThreadID: thread.ID}).Error)
	require.NoError(t, db.Create(&models.ReplyReaction{UserID: viewer.ID, ReplyID: replies[0].ID}).Error)

	w := doJSON(t, adminRouter(db, admin), http.MethodDelete,
		fmt.Sprintf("/admin/posts/%d", thread.ID), nil)
	requireStatus(t, w, http.StatusOK)

	var n int64
	require.NoError(t, db.Model(&models.Thread{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, db.Model(&models.Reply{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, db.Model(&models.ThreadReaction{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, db.Model(&models.ReplyReaction{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestDeleteThreadMissing(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	w := doJSON(t, adminRouter(db, admin), http.MethodDelete, "/admin/posts/9999", nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestDeleteReplyClearsBestSlot(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	thread := seedThread(t, db, author, seedCategory(t, db))
	replies := seedReplies(t, db, thread, author, 2)
	require.NoError(t, db.Model(&thread).Update("best_reply_id", replies[0].ID).Error)

	w := doJSON(t, adminRouter(db, admin), http.MethodDelete,
		fmt.Sprintf("/admin/replies/%d", replies[0].ID), nil)
	requireStatus(t, w, http.StatusOK)

	var fresh models.Thread
	require.NoError(t, db.First(&fresh, thread.ID).Error)
	assert.Nil(t, fresh.BestReplyID)

	var n int64
	require.NoError(t, db.Model(&models.Reply{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestDeleteReplyKeepsUnrelatedBestSlot(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	thread := seedThread(t, db, author, seedCategory(t, db))
	replies := seedReplies(t, db, thread, author, 2)
	require.NoError(t, db.Model(&thread).Update("best_reply_id", replies[0].ID).Error)

	w := doJSON(t, adminRouter(db, admin), http.MethodDelete,
		fmt.Sprintf("/admin/replies/%d", replies[1].ID), nil)
	requireStatus(t, w, http.StatusOK)

	var fresh models.Thread
	require.NoError(t, db.First(&fresh, thread.ID).Error)
	require.NotNil(t, fresh.BestReplyID)
	assert.Equal(t, replies[0].ID, *fresh.BestReplyID)
}
