package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opentalk/forum/config"
	"github.com/opentalk/forum/controllers"
	"github.com/opentalk/forum/middleware"
	"github.com/opentalk/forum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	threadController := controllers.NewThreadController(db)
	reactionController := controllers.NewReactionController(db)
	adminController := controllers.NewAdminController(db)
	categoryController := controllers.NewCategoryController(db)
	profileController := controllers.NewProfileController(db)
	notificationController := controllers.NewNotificationController(db)

	// Session endpoints are rate limited per client IP.
	session := r.Group("")
	session.Use(middleware.RateLimitMiddleware())
	session.POST("/register", authController.Register)
	session.POST("/login", authController.Login)
	session.POST("/logout", authController.Logout)

	r.POST("/posts", middleware.AuthRequired(), threadController.CreateThread)

	api := r.Group("/api")
	api.GET("/user-status", middleware.OptionalAuth(), authController.UserStatus)
	api.GET("/posts", threadController.ListThreads)
	api.GET("/threads/:id", middleware.OptionalAuth(), threadController.GetThread)
	api.GET("/categories", categoryController.ListCategories)
	api.GET("/categories/:slug", categoryController.GetCategory)
	api.GET("/profile/:username", profileController.GetProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/threads/:id/reply", threadController.CreateReply)
	protected.POST("/threads/:id/react", reactionController.ToggleThreadReaction)
	protected.POST("/replies/:id/react", reactionController.ToggleReplyReaction)
	protected.GET("/notifications", notificationController.ListNotifications)
	protected.POST("/notifications/:id/read", notificationController.MarkRead)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.PUT("/posts/:id", adminController.UpdateModeration)
	admin.DELETE("/posts/:id", adminController.DeleteThread)
	admin.PUT("/posts/:id/best-reply", adminController.SetBestReply)
	admin.DELETE("/replies/:id", adminController.DeleteReply)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
