package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keyward/core/internal/middleware"
	"github.com/keyward/core/internal/modules/activity"
	"github.com/keyward/core/internal/modules/application"
	"github.com/keyward/core/internal/modules/appuser"
	"github.com/keyward/core/internal/modules/auth"
	"github.com/keyward/core/internal/modules/health"
	"github.com/keyward/core/internal/modules/notify"
	"github.com/keyward/core/internal/modules/webhook"
	pkgredis "github.com/keyward/core/internal/pkg/redis"
	"github.com/keyward/core/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "keyward-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/keyward/core",
	}

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw(), a.logger))
	r.Use(middleware.Idempotence(rc.Raw()))

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth(db))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(processStart).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	health.RegisterRoutes(api, db, rc, a.sched, authMW)

	// Services. The notifier is built first since mutation paths feed it.
	webhookSvc := webhook.NewService(db)
	activitySvc := activity.NewService(db)
	notifier := notify.New(webhookSvc, appuser.NewUserStore(db), activitySvc, a.logger)

	applicationSvc := application.NewService(db)
	appuserSvc := appuser.NewService(db, applicationSvc, notifier, appuser.NewPresence(rc))
	authSvc := auth.NewService(db, notifier)

	// Account-facing API (JWT / API token).
	auth.NewHandler(authSvc).RegisterRoutes(api, authMW)
	application.NewHandler(applicationSvc, notifier).RegisterRoutes(api, authMW)
	appuser.NewHandler(appuserSvc).RegisterRoutes(api, authMW)
	webhook.NewHandler(webhookSvc, notifier).RegisterRoutes(api, authMW)
	activity.NewHandler(activitySvc).RegisterRoutes(api, authMW)

	// Client-facing API (app id + secret, no account token).
	appuser.NewClientHandler(appuserSvc).RegisterRoutes(api)
}

var processStart = time.Now()
