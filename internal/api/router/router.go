package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/config"
	"github.com/SyberOman/testing-hospital/internal/api/handler"
	"github.com/SyberOman/testing-hospital/internal/api/middleware"
	"github.com/SyberOman/testing-hospital/internal/model"
	"github.com/SyberOman/testing-hospital/pkg/jwt"
)

const (
	maxBodyBytes = 1 << 20

	loginRateLimit  = 10
	loginRateWindow = time.Minute
	apiRateLimit    = 300
	apiRateWindow   = time.Minute
)

// ReadinessCheck 就绪探针依赖检查（数据库、Redis）
type ReadinessCheck func(ctx context.Context) error

// Setup 初始化并返回 Gin 路由引擎
// blacklist、limiter 为 nil 时分别关闭 Token 注销检查与限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	blacklist middleware.TokenBlacklist,
	limiter middleware.RateLimiter,
	logger *zap.Logger,
	checks ...ReadinessCheck,
) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("就绪检查失败", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(limiter, loginRateLimit, loginRateWindow), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		authorized.Use(middleware.RateLimit(limiter, apiRateLimit, apiRateWindow))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块（管理员）
			users := authorized.Group("/users", adminOnly)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
				users.POST("/:id/reset-password", h.User.ResetPassword)
			}

			// 科室模块
			departments := authorized.Group("/departments")
			{
				departments.GET("", h.Department.ListDepartments)
				departments.GET("/shifts", h.Department.RequiredShifts)
				departments.GET("/:id", h.Department.GetDepartment)
				departments.POST("", adminOnly, h.Department.CreateDepartment)
				departments.PUT("/:id", adminOnly, h.Department.UpdateDepartment)
				departments.DELETE("/:id", adminOnly, h.Department.DeleteDepartment)
			}

			// 交班报表（非管理员限本科室，Service 层鉴权）
			reports := authorized.Group("/reports")
			{
				reports.GET("", h.Report.ListReports)
				reports.POST("", h.Report.SubmitReport)
				reports.GET("/notes", h.Report.ListNoteReports)
				reports.GET("/:id", h.Report.GetReport)
				reports.PUT("/:id", h.Report.UpdateReport)
				reports.DELETE("/:id", h.Report.DeleteReport)
			}

			// 上报状态
			status := authorized.Group("/status")
			{
				status.GET("/board", adminOnly, h.Status.Board)
				status.GET("/departments/:name", h.Status.Department)
				status.GET("/departments/:name/history", h.Status.History)
			}

			// 汇总统计
			summary := authorized.Group("/summary")
			{
				summary.GET("/daily", h.Summary.Daily)
				summary.GET("/monthly", h.Summary.Monthly)
				summary.GET("/trend", h.Summary.Trend)
				summary.GET("/sum", h.Summary.Sum)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/daily", h.Export.ExportDaily)
				export.GET("/monthly", h.Export.ExportMonthly)
			}
		}
	}

	return r
}
