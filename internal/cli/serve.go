package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labelhub/internal/config"
	"labelhub/internal/metrics"
	"labelhub/internal/middleware"
	"labelhub/internal/models"
	"labelhub/internal/repository"
	"labelhub/internal/router"
	"labelhub/internal/service"
	"labelhub/internal/storage"
	"labelhub/internal/utils"
	"labelhub/pkg/redis_limiter"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

// serve 初始化依赖并运行HTTP服务，ctx取消时优雅关闭
func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	// 初始化Sentry
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.WithError(err).Warn("初始化Sentry失败，错误上报已禁用")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 初始化数据库
	db, err := models.InitDB(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("初始化数据库失败: %w", err)
	}
	defer models.Close(db)
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 初始化存储
	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("初始化指标失败: %w", err)
	}

	// 初始化Redis上传限制
	var limiter middleware.UploadLimiter
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddress(),
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("Redis连接失败，上传限制将在Redis恢复后生效")
		}
		cancel()

		limiter = redis_limiter.NewRedisLimiter(redisClient, cfg.Redis.MaxConcurrentUploads,
			"labelhub:uploads:", cfg.Redis.GetSlotTTL(), logger)
	}

	jwtManager := utils.NewJWTManager(
		cfg.JWT.SecretKey,
		cfg.JWT.Algorithm,
		cfg.JWT.GetAccessExpireDuration(),
		cfg.JWT.GetRefreshExpireDuration(),
	)

	// 初始化管理员账户
	authService := service.NewAuthService(repository.NewUserRepository(db), jwtManager, cfg, m)
	if err := authService.InitAdmin(ctx); err != nil {
		logger.Warnf("初始化管理员失败: %v", err)
	}

	// 设置路由
	r := router.SetupRouter(router.Dependencies{
		Config:     cfg,
		JWTManager: jwtManager,
		Logger:     logger,
		DB:         db,
		Store:      store,
		Metrics:    m,
		Limiter:    limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Server.GetAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":      srv.Addr,
			"base_path": cfg.Server.BasePath,
			"storage":   store.Name(),
			"database":  cfg.Database.Driver,
		}).Info("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("启动服务器失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("正在关闭服务器")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务器失败: %w", err)
	}
	logger.Info("服务器已关闭")
	return nil
}
