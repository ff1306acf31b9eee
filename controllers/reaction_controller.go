package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

// ReactionController implements the like toggle for threads and replies.
//
// The toggle carries no explicit like/unlike intent: presence of a reaction
// row is the only state. The composite unique index resolves concurrent
// toggles; the handler never does a check-then-act on the row itself.
type ReactionController struct {
	db *gorm.DB
}

// NewReactionController creates a new ReactionController instance.
func NewReactionController(db *gorm.DB) *ReactionController {
	return &ReactionController{db: db}
}

// ToggleThreadReaction toggles the viewer's like on a thread and returns the
// resulting state with the recomputed like count.
func (r *ReactionController) ToggleThreadReaction(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "authentication required")
		return
	}

	var thread models.Thread
	if err := r.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "thread not found")
			return
		}
		utils.ServerError(ctx, 50050, "failed to load thread", err)
		return
	}

	reaction := models.ThreadReaction{
		UserID:   userID,
		ThreadID: thread.ID,
		Kind:     models.ReactionLike,
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&reaction)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			// Target deleted between the existence check and the insert.
			utils.Error(ctx, http.StatusNotFound, 40450, "thread not found")
			return
		}
		utils.ServerError(ctx, 50051, "failed to toggle reaction", res.Error)
		return
	}

	liked := res.RowsAffected > 0
	if !liked {
		// Row already existed: this call is the un-like half of the toggle.
		if err := r.db.Where("user_id = ? AND thread_id = ?", userID, thread.ID).
			Delete(&models.ThreadReaction{}).Error; err != nil {
			utils.ServerError(ctx, 50052, "failed to remove reaction", err)
			return
		}
	}

	var count int64
	if err := r.db.Model(&models.ThreadReaction{}).
		Where("thread_id = ?", thread.ID).Count(&count).Error; err != nil {
		utils.ServerError(ctx, 50053, "failed to count reactions", err)
		return
	}

	utils.Success(ctx, gin.H{"liked": liked, "like_count": count})
}

// ToggleReplyReaction toggles the viewer's like on a reply.
func (r *ReactionController) ToggleReplyReaction(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "authentication required")
		return
	}

	var reply models.Reply
	if err := r.db.First(&reply, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40451, "reply not found")
			return
		}
		utils.ServerError(ctx, 50054, "failed to load reply", err)
		return
	}

	reaction := models.ReplyReaction{
		UserID:  userID,
		ReplyID: reply.ID,
		Kind:    models.ReactionLike,
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&reaction)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			utils.Error(ctx, http.StatusNotFound, 40451, "reply not found")
			return
		}
		utils.ServerError(ctx, 50055, "failed to toggle reaction", res.Error)
		return
	}

	liked := res.RowsAffected > 0
	if !liked {
		if err := r.db.Where("user_id = ? AND reply_id = ?", userID, reply.ID).
			Delete(&models.ReplyReaction{}).Error; err != nil {
			utils.ServerError(ctx, 50056, "failed to remove reaction", err)
			return
		}
	}

	var count int64
	if err := r.db.Model(&models.ReplyReaction{}).
		Where("reply_id = ?", reply.ID).Count(&count).Error; err != nil {
		utils.ServerError(ctx, 50057, "failed to count reactions", err)
		return
	}

	utils.Success(ctx, gin.H{"liked": liked, "like_count": count})
}

