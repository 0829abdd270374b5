package app

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/controller"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/configwatcher"
	"adaptive_learning_backend/pkg/database"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"adaptive_learning_backend/pkg/security"
	"adaptive_learning_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	limiter         *security.RateLimiter
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	profiles  repository.ProfileStorage
	positions repository.PositionStore
	kv        repository.KVStore
}

type services struct {
	profiles       *service.ProfileStore
	catalog        *service.CatalogService
	adaptive       *service.AdaptiveService
	resume         *service.ResumeService
	recommendation *service.RecommendationService
}

type controllers struct {
	learner        *controller.LearnerController
	recommendation *controller.RecommendationController
	position       *controller.PositionController
	health         *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{}

	if cfg.Engine.ProfileStorage == util.BackendMemory {
		repos.profiles = repository.NewMemoryProfileRepository()
	} else {
		repos.profiles = repository.NewLearnerProfileRepository(db)
	}

	if cfg.Resume.LocalStore == util.BackendRedis && rdb != nil {
		repos.kv = repository.NewRedisKVStore(rdb)
	} else {
		repos.kv = repository.NewMemoryKVStore()
	}

	repos.positions = repository.NewFallbackPositionStore(
		repository.NewRemotePositionStore(db, cfg.Resume.BackendTimeout()),
		repository.NewLocalPositionStore(repos.kv, cfg.Resume.KeyPrefix),
	)
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	source, err := service.NewCatalogSource(&cfg.Catalog)
	if err != nil {
		logger.Log.Fatal("Failed to initialize catalog source", zap.Error(err))
	}
	s.catalog = service.NewCatalogService(source, time.Duration(cfg.Catalog.ReloadMinutes)*time.Minute)

	s.profiles = service.NewProfileStore(repos.profiles)
	s.adaptive = service.NewAdaptiveService(s.profiles)
	s.resume = service.NewResumeService(repos.positions, repos.kv, cfg.Resume.RecommendationTTL(), cfg.Resume.InProgressTTL())
	s.recommendation = service.NewRecommendationService(s.profiles, s.catalog, s.resume)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		learner:        controller.NewLearnerController(s.adaptive),
		recommendation: controller.NewRecommendationController(s.recommendation),
		position:       controller.NewPositionController(s.resume),
		health:         controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// 配置热更新时可以直接生效的设置
func (a *App) registerHotReload(s *services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.ApplyLevel(cfg.Server.Mode)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.resume.SetTTLs(cfg.Resume.RecommendationTTL(), cfg.Resume.InProgressTTL())
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.catalog.SetReloadInterval(time.Duration(cfg.Catalog.ReloadMinutes) * time.Minute)
		s.catalog.Invalidate()
	})
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")
	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db, rdb)
	app.registerHotReload(services)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go a.limiter.Run(ctx.Done())

	configFile := filepath.Join(a.Config.ConfigDir, "config.yaml")
	go func() {
		if err := configwatcher.WatchConfig(ctx, configFile, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
