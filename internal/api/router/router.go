package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sims/backend/config"
	"sims/backend/internal/api/handler"
	"sims/backend/internal/api/middleware"
	"sims/backend/pkg/jwt"
	"sims/backend/pkg/redis"
)

// 目录写操作允许的角色
var catalogEditors = []string{"admin", "registrar"}

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 吊销检查与限流降级关闭
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil *redis.Client 包装成非 nil 接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db))

	editorOnly := middleware.RoleAuth(catalogEditors...)
	writeLimit := middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, blacklist))
	{
		// 课程维度
		courses := v1.Group("/courses/:id")
		{
			courses.GET("/versions", h.CourseVersion.ListVersions)
			courses.POST("/versions", editorOnly, writeLimit, h.CourseVersion.CreateVersion)
			courses.GET("/versions/active", h.CourseVersion.GetActiveVersion)

			courses.GET("/prerequisites/graph", h.Prerequisite.GetGraph)
			courses.GET("/prerequisites/validate", h.Prerequisite.Validate)
			courses.GET("/dependents", h.Prerequisite.GetDependents)

			courses.GET("/catalog-report", editorOnly, h.Export.ExportCatalogReport)
		}

		// 版本维度
		versions := v1.Group("/course-versions/:id")
		{
			versions.GET("", h.CourseVersion.GetVersion)
			versions.PUT("/archive", editorOnly, writeLimit, h.CourseVersion.ArchiveVersion)
		}
	}

	return r
}

// healthCheck 检查数据库连通性
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
