package router

import (
	"net/http"
	"strings"

	"labelhub/internal/config"
	"labelhub/internal/handler"
	"labelhub/internal/metrics"
	"labelhub/internal/middleware"
	"labelhub/internal/repository"
	"labelhub/internal/service"
	"labelhub/internal/storage"
	"labelhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies 路由依赖
type Dependencies struct {
	Config     *config.Config
	JWTManager *utils.JWTManager
	Logger     *logrus.Logger
	DB         *gorm.DB
	Store      storage.Store
	Metrics    *metrics.Metrics         // 可为nil
	Limiter    middleware.UploadLimiter // 可为nil
}

// SetupRouter 设置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// 带或不带结尾斜杠的路径都单独注册，不做重定向
	r.RedirectTrailingSlash = false
	r.MaxMultipartMemory = 8 << 20

	// 全局中间件
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	// 指标在Recovery之外，panic的请求也会被计数
	if deps.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.SentryMiddleware())
	r.Use(middleware.CORS(&cfg.CORS))

	r.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "not found")
	})

	// 初始化Repository
	userRepo := repository.NewUserRepository(deps.DB)
	datasetRepo := repository.NewDatasetRepository(deps.DB)
	labelRepo := repository.NewLabelRepository(deps.DB)
	submissionRepo := repository.NewSubmissionRepository(deps.DB)

	// 初始化Service
	authService := service.NewAuthService(userRepo, deps.JWTManager, cfg, deps.Metrics)
	datasetService := service.NewDatasetService(datasetRepo, cfg.Cache.GetDatasetsTTL(), deps.Metrics)
	submissionService := service.NewSubmissionService(submissionRepo, datasetRepo, labelRepo, deps.Store, cfg, deps.Metrics, deps.Logger)
	adminService := service.NewAdminService(userRepo, deps.Store, deps.Logger)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	datasetHandler := handler.NewDatasetHandler(datasetService)
	submissionHandler := handler.NewSubmissionHandler(submissionService, &cfg.Storage)
	adminHandler := handler.NewAdminHandler(adminService, submissionService)
	healthHandler := handler.NewHealthHandler(deps.DB)

	// 运维接口
	r.GET("/healthz", healthHandler.Healthz)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// 本地存储的图片由服务自身提供
	if local, ok := deps.Store.(*storage.LocalStore); ok {
		if prefix := strings.TrimRight(local.URL(""), "/"); isLocalPath(prefix) {
			r.Static(prefix, local.Root())
		}
	}

	api := r.Group(cfg.Server.BasePath)
	{
		// 公开路由
		handle(api, http.MethodPost, "/auth/register", authHandler.Register)
		handle(api, http.MethodPost, "/auth/login", authHandler.Login)
		handle(api, http.MethodPost, "/auth/refresh", authHandler.Refresh)

		// 认证路由
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(authService))
		{
			handle(authorized, http.MethodGet, "/auth/me", authHandler.GetMe)

			handle(authorized, http.MethodGet, "/datasets", datasetHandler.ListDatasets)

			handle(authorized, http.MethodGet, "/submissions", submissionHandler.ListSubmissions)
			handle(authorized, http.MethodPost, "/submissions",
				middleware.UploadLimitMiddleware(deps.Limiter, deps.Metrics, deps.Logger),
				submissionHandler.CreateSubmission)

			handle(authorized, http.MethodGet, "/dashboard", submissionHandler.Dashboard)

			// 管理员接口
			adminGroup := authorized.Group("/admin")
			adminGroup.Use(middleware.AdminMiddleware())
			{
				handle(adminGroup, http.MethodGet, "/users", adminHandler.ListUsers)
				handle(adminGroup, http.MethodDelete, "/users/:id", adminHandler.DeleteUser)
				handle(adminGroup, http.MethodGet, "/submissions", adminHandler.ListSubmissions)
			}
		}
	}

	return r
}

// handle 同时注册带和不带结尾斜杠的路径
func handle(g *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	path = strings.TrimRight(path, "/")
	g.Handle(method, path, handlers...)
	g.Handle(method, path+"/", handlers...)
}

// isLocalPath 公开地址是否为本服务的路径（而不是外部URL）
func isLocalPath(u string) bool {
	return strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//")
}
