package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

// ProfileController serves public user profiles with recent activity.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

const recentActivityLimit = 10

type recentReply struct {
	ID          uint      `json:"id"`
	ThreadID    uint      `json:"thread_id"`
	ThreadTitle string    `json:"thread_title"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetProfile returns the public profile for a username plus their most recent
// replies with the titles of the threads they landed on.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))

	var user models.User
	if err := p.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40480, "user not found")
			return
		}
		utils.ServerError(ctx, 50080, "failed to load user", err)
		return
	}

	var replies []models.Reply
	if err := p.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").Limit(recentActivityLimit).
		Find(&replies).Error; err != nil {
		utils.ServerError(ctx, 50081, "failed to load recent replies", err)
		return
	}

	threadIDs := make([]uint, 0, len(replies))
	for _, r := range replies {
		threadIDs = append(threadIDs, r.ThreadID)
	}
	threadIDs = utils.UniqueUint(threadIDs)

	titles := map[uint]string{}
	if len(threadIDs) > 0 {
		var threads []models.Thread
		if err := p.db.Select("id, title").Find(&threads, threadIDs).Error; err != nil {
			utils.ServerError(ctx, 50082, "failed to load reply threads", err)
			return
		}
		for _, th := range threads {
			titles[th.ID] = th.Title
		}
	}

	recent := make([]recentReply, 0, len(replies))
	for _, r := range replies {
		recent = append(recent, recentReply{
			ID:          r.ID,
			ThreadID:    r.ThreadID,
			ThreadTitle: titles[r.ThreadID],
			Content:     r.Content,
			CreatedAt:   r.CreatedAt,
		})
	}

	utils.Success(ctx, gin.H{
		"user":           toPublicUser(user),
		"recent_replies": recent,
	})
}
