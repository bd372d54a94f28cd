package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keyward/core/internal/pkg/cron"
	redispkg "github.com/keyward/core/internal/pkg/redis"
	"github.com/keyward/core/internal/pkg/response"
	"gorm.io/gorm"
)

// RegisterRoutes exposes a public liveness probe plus authed cron inspection.
func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, rdb *redispkg.Client, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	rg.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		dbOK := err == nil && sqlDB.Ping() == nil

		redisOK := true
		if rdb != nil {
			redisOK = rdb.Raw().Ping(c.Request.Context()).Err() == nil
		}

		status := "ok"
		code := http.StatusOK
		if !dbOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbOK,
			"redis":    redisOK,
		})
	})

	admin := rg.Group("/health", authMW)
	admin.GET("/cron", func(c *gin.Context) {
		items := sched.List()
		byName := make(map[string]cron.ListItem, len(items))
		for _, item := range items {
			byName[item.Name] = item
		}
		response.OK(c, byName)
	})
	admin.POST("/cron/run/:name", func(c *gin.Context) {
		if err := sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, gin.H{"message": "job triggered"})
	})
}
