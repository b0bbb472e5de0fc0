package app

import (
	"context"
	"forex_edu_backend/internal/config"
	"forex_edu_backend/internal/controller"
	"forex_edu_backend/internal/middleware"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/service"
	"forex_edu_backend/pkg/configwatcher"
	"forex_edu_backend/pkg/database"
	"forex_edu_backend/pkg/logger"
	"forex_edu_backend/pkg/monitoring"
	"forex_edu_backend/pkg/security"
	"forex_edu_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
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
	rateLimiter     *security.RateLimiter
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	progress *repository.ProgressRepository
	chat     *repository.ChatRepository
	skill    *repository.SkillRepository
	mission  *repository.MissionRepository
	activity *repository.ActivityRepository
}

type services struct {
	ai        *service.AIService
	activity  *service.ActivityService
	blacklist *service.TokenBlacklist
	auth      *service.AuthService
	user      *service.UserService
	progress  *service.ProgressService
	skill     *service.SkillService
	mission   *service.MissionService
	quiz      *service.QuizService
	chat      *service.ChatService
}

type controllers struct {
	auth     *controller.AuthController
	ai       *controller.AIController
	skill    *controller.SkillController
	user     *controller.UserController
	activity *controller.ActivityController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(newCfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(newCfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		progress: repository.NewProgressRepository(db),
		chat:     repository.NewChatRepository(db),
		skill:    repository.NewSkillRepository(db),
		mission:  repository.NewMissionRepository(db),
		activity: repository.NewActivityRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.activity = service.NewActivityService(repos.activity, repos.user)
	s.blacklist = service.NewTokenBlacklist(rdb)
	s.auth = service.NewAuthService(repos.user, s.activity, s.blacklist, cfg)
	s.user = service.NewUserService(repos.user)
	s.progress = service.NewProgressService(db, repos.user, repos.progress)
	s.skill = service.NewSkillService(db, repos.skill)
	s.mission = service.NewMissionService(db, rdb, repos.user, repos.mission, cfg.Missions.DailyCount)
	s.quiz = service.NewQuizService(repos.user, s.ai, s.skill, s.progress, s.mission)
	s.chat = service.NewChatService(repos.user, repos.chat, s.ai, s.mission)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	isRelease := a.Config.IsRelease()
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		ai:       controller.NewAIController(s.chat, s.quiz, s.progress, s.user, isRelease),
		skill:    controller.NewSkillController(s.skill, s.mission),
		user:     controller.NewUserController(s.user),
		activity: controller.NewActivityController(s.activity),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config, s *services) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.rateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.rateLimiter.Middleware())
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		a.rateLimiter.Update(newCfg.RateLimit.MaxRequests, time.Duration(newCfg.RateLimit.WindowMinutes)*time.Minute)
	})

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.ActivityLogger(s.activity))
}

// New 使用已初始化的数据库和 redis 组装应用
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg, services)
	app.registerRoutes(router, controllers, services, cfg)

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式默认不自动迁移，需显式指定 -migrate
	if !cfg.IsRelease() || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if err := database.Seed(db, &cfg.Seed); err != nil {
		logger.Log.Fatal("Failed to seed database", zap.Error(err))
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("forex-edu-backend", cfg.Tracing.Exporter, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if a.Config.ConfigDir != "" {
		if err := configwatcher.WatchConfig(watchCtx, a.Config.ConfigDir, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
