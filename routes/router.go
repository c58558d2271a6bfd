package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/liveplus/config"
	"github.com/cppla/liveplus/controllers"
	"github.com/cppla/liveplus/middleware"
	"github.com/cppla/liveplus/store"
	"github.com/cppla/liveplus/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, st *store.Store) *gin.Engine {
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
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{
			"status":   "ok",
			"storage":  cfg.StorageDriver,
			"degraded": st.Degraded(),
		})
	})

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.AdminTokenTTLHours)*time.Hour)
	blacklist := utils.NewTokenBlacklist()
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	postController := controllers.NewPostController(st, cfg.ShareBaseURL)
	adminController := controllers.NewAdminController(st, issuer, blacklist, cfg.AdminAccessCode, cfg.AdminAccessCodeHash)
	statsController := controllers.NewStatsController(st)
	configController := controllers.NewConfigController(cfg.SiteName)

	api := r.Group("/api/v1")
	api.GET("/site", configController.GetSite)
	api.GET("/stats", statsController.GetStats)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.GET("/:id/share", postController.Share)
	postsGroup.POST("/:id/comments", limiter.Middleware(), postController.CreateComment)
	postsGroup.POST("/:id/reactions", limiter.Middleware(), postController.React)

	adminGroup := api.Group("/admin")
	adminGroup.POST("/login", limiter.Middleware(), adminController.Login)

	protected := adminGroup.Group("")
	protected.Use(middleware.AdminRequired(issuer, blacklist))
	protected.POST("/logout", adminController.Logout)
	protected.GET("/posts", adminController.ListPosts)
	protected.GET("/posts/:id", adminController.GetPost)
	protected.POST("/posts", adminController.SavePost)
	protected.PUT("/posts/:id", adminController.UpdatePost)
	protected.POST("/posts/:id/publish", adminController.PublishPost)
	protected.DELETE("/posts/:id", adminController.DeletePost)
	protected.POST("/media", adminController.UploadMedia)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
