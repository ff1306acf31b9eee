package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

// NotificationController serves the viewer's in-app notifications.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

const notificationListLimit = 50

// ListNotifications returns the viewer's notifications, newest first.
func (n *NotificationController) ListNotifications(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "authentication required")
		return
	}

	var items []models.Notification
	if err := n.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(notificationListLimit).
		Find(&items).Error; err != nil {
		utils.ServerError(ctx, 50090, "failed to list notifications", err)
		return
	}

	var unread int64
	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		utils.ServerError(ctx, 50091, "failed to count unread notifications", err)
		return
	}

	utils.Success(ctx, gin.H{"items": items, "unread": unread})
}

// MarkRead flags one of the viewer's notifications as read. Notifications
// belonging to other users are indistinguishable from missing ones.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "authentication required")
		return
	}

	var notification models.Notification
	err := n.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40490, "notification not found")
			return
		}
		utils.ServerError(ctx, 50092, "failed to load notification", err)
		return
	}

	if err := n.db.Model(&notification).Update("is_read", true).Error; err != nil {
		utils.ServerError(ctx, 50093, "failed to update notification", err)
		return
	}

	utils.Success(ctx, gin.H{"notification": notification})
}
