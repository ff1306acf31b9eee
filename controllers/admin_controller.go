package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

// AdminController implements moderation: pin/lock, deletion and the best-reply
// slot. Role enforcement happens in middleware; none of these operations are
// owner-scoped.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// UpdateModeration sets the pinned/locked flags on a thread. Absent fields are
// left untouched.
func (a *AdminController) UpdateModeration(ctx *gin.Context) {
	var req struct {
		IsPinned *bool `json:"is_pinned"`
		IsLocked *bool `json:"is_locked"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	if req.IsPinned == nil && req.IsLocked == nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "nothing to update")
		return
	}

	var thread models.Thread
	if err := a.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40460, "thread not found")
			return
		}
		utils.ServerError(ctx, 50060, "failed to load thread", err)
		return
	}

	updates := map[string]interface{}{}
	if req.IsPinned != nil {
		updates["is_pinned"] = *req.IsPinned
	}
	if req.IsLocked != nil {
		updates["is_locked"] = *req.IsLocked
	}
	if err := a.db.Model(&thread).Updates(updates).Error; err != nil {
		utils.ServerError(ctx, 50061, "failed to update thread", err)
		return
	}

	utils.InvalidateByPrefix("cache:threads:list:")
	utils.Success(ctx, gin.H{"thread": thread})
}

// DeleteThread removes a thread. Replies and reactions go with it through the
// store's cascading foreign keys.
func (a *AdminController) DeleteThread(ctx *gin.Context) {
	var thread models.Thread
	if err := a.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40461, "thread not found")
			return
		}
		utils.ServerError(ctx, 50062, "failed to load thread", err)
		return
	}

	if err := a.db.Delete(&thread).Error; err != nil {
		utils.ServerError(ctx, 50063, "failed to delete thread", err)
		return
	}

	utils.InvalidateByPrefix("cache:threads:list:")
	utils.Success(ctx, gin.H{"message": "thread deleted"})
}

// SetBestReply designates one reply of a thread as the best reply. The slot is
// single and overwritable; the last writer wins.
func (a *AdminController) SetBestReply(ctx *gin.Context) {
	var req struct {
		ReplyID uint `json:"reply_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}

	var thread models.Thread
	if err := a.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40462, "thread not found")
			return
		}
		utils.ServerError(ctx, 50064, "failed to load thread", err)
		return
	}

	var reply models.Reply
	if err := a.db.Preload("User").
		Where("id = ? AND thread_id = ?", req.ReplyID, thread.ID).
		First(&reply).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40463, "reply does not belong to this thread")
			return
		}
		utils.ServerError(ctx, 50065, "failed to load reply", err)
		return
	}

	if err := a.db.Model(&thread).Update("best_reply_id", reply.ID).Error; err != nil {
		utils.ServerError(ctx, 50066, "failed to set best reply", err)
		return
	}

	notification := models.Notification{
		UserID:   reply.UserID,
		Type:     models.NotificationBestReply,
		SourceID: thread.ID,
		Message:  fmt.Sprintf("your reply on %q was marked as the best reply", thread.Title),
	}
	if err := a.db.Create(&notification).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("failed to record best-reply notification: %v", err)
	}

	utils.Success(ctx, gin.H{"thread": thread})
}

// DeleteReply removes a single reply. When the reply holds the best-reply slot
// the slot is cleared first so the thread never points at a missing reply.
func (a *AdminController) DeleteReply(ctx *gin.Context) {
	var reply models.Reply
	if err := a.db.First(&reply, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40464, "reply not found")
			return
		}
		utils.ServerError(ctx, 50067, "failed to load reply", err)
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Thread{}).
			Where("id = ? AND best_reply_id = ?", reply.ThreadID, reply.ID).
			Update("best_reply_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&reply).Error
	})
	if err != nil {
		utils.ServerError(ctx, 50068, "failed to delete reply", err)
		return
	}

	utils.InvalidateByPrefix("cache:threads:list:")
	utils.Success(ctx, gin.H{"message": "reply deleted"})
}
