package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/config"
	"github.com/SyberOman/testing-hospital/internal/api/handler"
	"github.com/SyberOman/testing-hospital/internal/api/middleware"
	"github.com/SyberOman/testing-hospital/internal/api/router"
	"github.com/SyberOman/testing-hospital/internal/repository"
	"github.com/SyberOman/testing-hospital/internal/service"
	"github.com/SyberOman/testing-hospital/pkg/database"
	"github.com/SyberOman/testing-hospital/pkg/jwt"
	applogger "github.com/SyberOman/testing-hospital/pkg/logger"
	"github.com/SyberOman/testing-hospital/pkg/redis"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	instanceID := uuid.New().String()
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("instance_id", instanceID),
		zap.String("report_timezone", cfg.Report.Timezone),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时关闭 Token 注销、限流与多实例同步）
	var (
		blacklist   middleware.TokenBlacklist
		limiter     middleware.RateLimiter
		svcBlack    service.TokenBlacklist
		svcNotifier service.DepartmentNotifier
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，降级运行", zap.Error(err))
		rdb = nil
	} else {
		blacklist, limiter = rdb, rdb
		svcBlack, svcNotifier = rdb, rdb
	}

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, logger, service.Deps{
		Blacklist:  svcBlack,
		Notifier:   svcNotifier,
		InstanceID: instanceID,
	})
	h := handler.NewHandler(svc)

	// 6. 载入科室配置
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := svc.Department.Reload(rootCtx); err != nil {
		logger.Fatal("载入科室配置失败", zap.Error(err))
	}
	if rdb != nil {
		err := rdb.SubscribeDepartmentsChanged(rootCtx, func(origin string) {
			if origin == instanceID {
				return
			}
			if err := svc.Department.Reload(rootCtx); err != nil {
				logger.Error("同步科室配置失败", zap.String("origin", origin), zap.Error(err))
				return
			}
			logger.Info("科室配置已同步", zap.String("origin", origin))
		})
		if err != nil {
			logger.Warn("订阅科室变更失败，多实例间配置不会自动同步", zap.Error(err))
		}
	}

	// 7. 启动 HTTP 服务器（优雅关闭）
	checks := []router.ReadinessCheck{func(ctx context.Context) error { return database.Ping(ctx, db) }}
	if rdb != nil {
		checks = append(checks, rdb.Ping)
	}
	engine := router.Setup(cfg, h, jwtMgr, blacklist, limiter, logger, checks...)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
