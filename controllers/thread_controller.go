package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opentalk/forum/config"
	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

// ThreadController manages threads, replies and the aggregated thread view.
type ThreadController struct {
	db *gorm.DB
}

// NewThreadController creates a new ThreadController instance.
func NewThreadController(db *gorm.DB) *ThreadController {
	return &ThreadController{db: db}
}

type replyView struct {
	ID            uint       `json:"id"`
	ThreadID      uint       `json:"thread_id"`
	Content       string     `json:"content"`
	CreatedAt     time.Time  `json:"created_at"`
	Author        publicUser `json:"author"`
	LikeCount     int64      `json:"like_count"`
	LikedByViewer bool       `json:"liked_by_viewer"`
}

type threadSummary struct {
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	CategoryID uint       `json:"category_id"`
	Category   string     `json:"category"`
	IsPinned   bool       `json:"is_pinned"`
	IsLocked   bool       `json:"is_locked"`
	CreatedAt  time.Time  `json:"created_at"`
	Author     publicUser `json:"author"`
	ReplyCount int64      `json:"reply_count"`
	LikeCount  int64      `json:"like_count"`
}

// ListThreads returns threads ordered pinned-first then newest-first, with an
// optional category slug filter. The unfiltered pages are cached in Redis and
// invalidated on any write that changes the listing.
func (t *ThreadController) ListThreads(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))
	pageSize := 20
	if v, err := strconv.Atoi(ctx.Query("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	categorySlug := strings.TrimSpace(ctx.Query("category"))

	cacheKey := fmt.Sprintf("cache:threads:list:cat=%s:page=%d:size=%d", categorySlug, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	query := t.db.Model(&models.Thread{}).
		Preload("User").Preload("Category").
		Order("is_pinned DESC, created_at DESC")
	if categorySlug != "" {
		var category models.Category
		if err := t.db.Where("slug = ?", categorySlug).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(ctx, http.StatusNotFound, 40430, "category not found")
				return
			}
			utils.ServerError(ctx, 50030, "failed to load category", err)
			return
		}
		query = query.Where("category_id = ?", category.ID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.ServerError(ctx, 50031, "failed to count threads", err)
		return
	}

	var threads []models.Thread
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&threads).Error; err != nil {
		utils.ServerError(ctx, 50032, "failed to list threads", err)
		return
	}

	items, err := t.toThreadSummaries(threads)
	if err != nil {
		utils.ServerError(ctx, 50033, "failed to aggregate thread counts", err)
		return
	}

	payload := gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

func (t *ThreadController) toThreadSummaries(threads []models.Thread) ([]threadSummary, error) {
	ids := make([]uint, 0, len(threads))
	for _, th := range threads {
		ids = append(ids, th.ID)
	}

	replyCounts := map[uint]int64{}
	likeCounts := map[uint]int64{}
	if len(ids) > 0 {
		type pair struct {
			ThreadID uint
			N        int64
		}
		var rows []pair
		if err := t.db.Model(&models.Reply{}).
			Select("thread_id, COUNT(*) AS n").Where("thread_id IN ?", ids).
			Group("thread_id").Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			replyCounts[r.ThreadID] = r.N
		}
		rows = nil
		if err := t.db.Model(&models.ThreadReaction{}).
			Select("thread_id, COUNT(*) AS n").Where("thread_id IN ?", ids).
			Group("thread_id").Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			likeCounts[r.ThreadID] = r.N
		}
	}

	items := make([]threadSummary, 0, len(threads))
	for _, th := range threads {
		items = append(items, threadSummary{
			ID:         th.ID,
			Title:      th.Title,
			CategoryID: th.CategoryID,
			Category:   th.Category.Name,
			IsPinned:   th.IsPinned,
			IsLocked:   th.IsLocked,
			CreatedAt:  th.CreatedAt,
			Author:     toPublicUser(th.User),
			ReplyCount: replyCounts[th.ID],
			LikeCount:  likeCounts[th.ID],
		})
	}
	return items, nil
}

// CreateThread allows authenticated users to start a new thread.
func (t *ThreadController) CreateThread(ctx *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required,min=1"`
		Content    string `json:"content" binding:"required"`
		CategoryID uint   `json:"category_id" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.SanitizeStrict(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "content cannot be empty")
		return
	}

	var category models.Category
	if err := t.db.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40431, "category not found")
			return
		}
		utils.ServerError(ctx, 50034, "failed to load category", err)
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "authentication required")
		return
	}

	thread := models.Thread{
		UserID:     userID,
		CategoryID: category.ID,
		Title:      title,
		Content:    content,
	}
	if err := t.db.Create(&thread).Error; err != nil {
		utils.ServerError(ctx, 50035, "failed to create thread", err)
		return
	}

	// post_count is a cached contribution counter, not recomputed on deletes.
	t.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1"))

	utils.InvalidateByPrefix("cache:threads:list:")

	if err := t.db.Preload("User").Preload("Category").First(&thread, thread.ID).Error; err != nil {
		utils.ServerError(ctx, 50036, "failed to load thread", err)
		return
	}
	utils.Success(ctx, gin.H{"thread": thread})
}

// GetThread assembles the aggregated thread view: the thread with author and
// category, moderation flags, one page of replies in creation order, the
// designated best reply pulled out of normal order, and per-item like counts
// with the viewer's own reaction state. Read-only.
func (t *ThreadController) GetThread(ctx *gin.Context) {
	threadID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || threadID <= 0 {
		utils.Error(ctx, http.StatusNotFound, 40440, "thread not found")
		return
	}

	var thread models.Thread
	if err := t.db.Preload("User").Preload("Category").First(&thread, threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "thread not found")
			return
		}
		utils.ServerError(ctx, 50040, "failed to load thread", err)
		return
	}

	var replies []models.Reply
	if err := t.db.Preload("User").
		Where("thread_id = ?", thread.ID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error; err != nil {
		utils.ServerError(ctx, 50041, "failed to load replies", err)
		return
	}

	pageSize := config.Get().ReplyPageSize
	pg := paginateReplies(replies, parsePage(ctx.Query("page")), pageSize, thread.BestReplyID)

	viewer := viewerID(ctx)

	visible := make([]uint, 0, len(pg.Items)+1)
	for _, r := range pg.Items {
		visible = append(visible, r.ID)
	}
	if pg.Best != nil {
		visible = append(visible, pg.Best.ID)
	}
	visible = utils.UniqueUint(visible)

	replyLikes, viewerLikes, err := t.replyReactionState(visible, viewer)
	if err != nil {
		utils.ServerError(ctx, 50042, "failed to load reactions", err)
		return
	}

	var threadLikes int64
	if err := t.db.Model(&models.ThreadReaction{}).
		Where("thread_id = ?", thread.ID).Count(&threadLikes).Error; err != nil {
		utils.ServerError(ctx, 50043, "failed to count thread reactions", err)
		return
	}
	threadLikedByViewer := false
	if viewer != nil {
		var n int64
		if err := t.db.Model(&models.ThreadReaction{}).
			Where("thread_id = ? AND user_id = ?", thread.ID, *viewer).
			Count(&n).Error; err != nil {
			utils.ServerError(ctx, 50044, "failed to load viewer reaction", err)
			return
		}
		threadLikedByViewer = n > 0
	}

	toView := func(r models.Reply) replyView {
		return replyView{
			ID:            r.ID,
			ThreadID:      r.ThreadID,
			Content:       r.Content,
			CreatedAt:     r.CreatedAt,
			Author:        toPublicUser(r.User),
			LikeCount:     replyLikes[r.ID],
			LikedByViewer: viewerLikes[r.ID],
		}
	}

	pageViews := make([]replyView, 0, len(pg.Items))
	for _, r := range pg.Items {
		pageViews = append(pageViews, toView(r))
	}
	var bestView *replyView
	if pg.Best != nil {
		v := toView(*pg.Best)
		bestView = &v
	}

	utils.Success(ctx, gin.H{
		"thread": gin.H{
			"id":              thread.ID,
			"title":           thread.Title,
			"content":         thread.Content,
			"category_id":     thread.CategoryID,
			"category":        thread.Category.Name,
			"is_pinned":       thread.IsPinned,
			"is_locked":       thread.IsLocked,
			"best_reply_id":   thread.BestReplyID,
			"created_at":      thread.CreatedAt,
			"author":          toPublicUser(thread.User),
			"like_count":      threadLikes,
			"liked_by_viewer": threadLikedByViewer,
		},
		"best_reply": bestView,
		"replies":    pageViews,
		"pagination": gin.H{
			"page":          pg.Page,
			"page_size":     pageSize,
			"total_pages":   pg.TotalPages,
			"total_replies": pg.Total,
		},
	})
}

// replyReactionState batch-loads like counts for the given replies and, when a
// viewer is present, which of them the viewer has reacted to.
func (t *ThreadController) replyReactionState(replyIDs []uint, viewer *uint) (map[uint]int64, map[uint]bool, error) {
	counts := map[uint]int64{}
	liked := map[uint]bool{}
	if len(replyIDs) == 0 {
		return counts, liked, nil
	}

	type pair struct {
		ReplyID uint
		N       int64
	}
	var rows []pair
	if err := t.db.Model(&models.ReplyReaction{}).
		Select("reply_id, COUNT(*) AS n").Where("reply_id IN ?", replyIDs).
		Group("reply_id").Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		counts[r.ReplyID] = r.N
	}

	if viewer != nil {
		var ids []uint
		if err := t.db.Model(&models.ReplyReaction{}).
			Where("user_id = ? AND reply_id IN ?", *viewer, replyIDs).
			Pluck("reply_id", &ids).Error; err != nil {
			return nil, nil, err
		}
		for _, id := range ids {
			liked[id] = true
		}
	}
	return counts, liked, nil
}

// CreateReply adds a reply to a thread. Locked threads reject new replies.
func (t *ThreadController) CreateReply(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40024, "content cannot be empty")
		return
	}

	var thread models.Thread
	if err := t.db.Preload("User").First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40441, "thread not found")
			return
		}
		utils.ServerError(ctx, 50045, "failed to load thread", err)
		return
	}

	if thread.IsLocked {
		utils.Error(ctx, http.StatusForbidden, 40310, "thread is locked")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "authentication required")
		return
	}

	reply := models.Reply{
		ThreadID: thread.ID,
		UserID:   userID,
		Content:  content,
	}
	if err := t.db.Create(&reply).Error; err != nil {
		utils.ServerError(ctx, 50046, "failed to create reply", err)
		return
	}

	t.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1"))

	utils.InvalidateByPrefix("cache:threads:list:")

	if err := t.db.Preload("User").First(&reply, reply.ID).Error; err != nil {
		utils.ServerError(ctx, 50047, "failed to load reply", err)
		return
	}

	t.notifyThreadAuthor(thread, reply)

	utils.Success(ctx, gin.H{"reply": reply})
}

// notifyThreadAuthor records an in-app notification for the thread author and
// sends a best-effort email. Mail failures are logged and swallowed.
func (t *ThreadController) notifyThreadAuthor(thread models.Thread, reply models.Reply) {
	if thread.UserID == reply.UserID {
		return
	}

	notification := models.Notification{
		UserID:   thread.UserID,
		Type:     models.NotificationReply,
		SourceID: thread.ID,
		Message:  fmt.Sprintf("%s replied to your thread %q", reply.User.Username, thread.Title),
	}
	if err := t.db.Create(&notification).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("failed to record reply notification: %v", err)
	}

	email := thread.User.Email
	if email == "" {
		return
	}
	go func() {
		subject := fmt.Sprintf("New reply on %q", thread.Title)
		body := fmt.Sprintf("%s replied to your thread %q:\n\n%s\n", reply.User.Username, thread.Title, reply.Content)
		if err := utils.SendMail(email, subject, body); err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("reply notification mail to %s failed: %v", email, err)
		}
	}()
}
