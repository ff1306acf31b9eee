package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opentalk/forum/models"
	"github.com/opentalk/forum/utils"
)

// CategoryController serves the static category reference data.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// ListCategories returns all categories with their thread counts.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	var categories []models.Category
	if err := c.db.Order("id ASC").Find(&categories).Error; err != nil {
		utils.ServerError(ctx, 50070, "failed to list categories", err)
		return
	}

	type pair struct {
		CategoryID uint
		N          int64
	}
	var rows []pair
	if err := c.db.Model(&models.Thread{}).
		Select("category_id, COUNT(*) AS n").
		Group("category_id").Scan(&rows).Error; err != nil {
		utils.ServerError(ctx, 50071, "failed to count threads", err)
		return
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.N
	}

	type categoryView struct {
		models.Category
		ThreadCount int64 `json:"thread_count"`
	}
	items := make([]categoryView, 0, len(categories))
	for _, cat := range categories {
		items = append(items, categoryView{Category: cat, ThreadCount: counts[cat.ID]})
	}

	utils.Success(ctx, gin.H{"items": items})
}

// GetCategory returns one category by slug together with its threads,
// pinned-first then newest-first.
func (c *CategoryController) GetCategory(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))

	var category models.Category
	if err := c.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40470, "category not found")
			return
		}
		utils.ServerError(ctx, 50072, "failed to load category", err)
		return
	}

	var threads []models.Thread
	if err := c.db.Preload("User").Preload("Category").
		Where("category_id = ?", category.ID).
		Order("is_pinned DESC, created_at DESC").
		Find(&threads).Error; err != nil {
		utils.ServerError(ctx, 50073, "failed to list category threads", err)
		return
	}

	tc := ThreadController{db: c.db}
	items, err := tc.toThreadSummaries(threads)
	if err != nil {
		utils.ServerError(ctx, 50074, "failed to aggregate thread counts", err)
		return
	}

	utils.Success(ctx, gin.H{"category": category, "threads": items})
}
