package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/veritas-team/meeting-pipeline/pkg/validator"

	"github.com/veritas-team/meeting-pipeline/internal/adapter/handler"
	"github.com/veritas-team/meeting-pipeline/internal/adapter/repository"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/cache"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/database"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/calendar"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/external/vexa"
	httpmw "github.com/veritas-team/meeting-pipeline/internal/infrastructure/http/middleware"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/storage"
	"github.com/veritas-team/meeting-pipeline/internal/usecase/pipeline"
	pkgai "github.com/veritas-team/meeting-pipeline/pkg/ai"
	"github.com/veritas-team/meeting-pipeline/pkg/config"
	"github.com/veritas-team/meeting-pipeline/pkg/notify"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, httpmw.SignatureHeader},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize stage locker, Redis-backed when configured
	var locker cache.Locker
	if cfg.RedisEnabled() {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient)
	} else {
		log.Println("📦 Redis not configured, using in-process stage locks")
		memLocker := cache.NewMemoryLocker()
		defer memLocker.Stop()
		locker = memLocker
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	userRepo := repository.NewUserRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize external clients
	log.Println("📅 Initializing Google Calendar client...")
	calendarSvc := calendar.NewService(cfg.Google.ClientID, cfg.Google.ClientSecret)

	log.Println("🤖 Initializing transcription vendor client...")
	vexaClient := vexa.NewClient(&cfg.Vexa)

	log.Println("🧠 Initializing analysis client...")
	analysisClient := pkgai.NewOpenAIClient(&cfg.Analysis)

	log.Println("💬 Initializing Slack client...")
	slackClient := notify.NewSlackClient(&cfg.Notification)
	if !slackClient.Enabled() {
		log.Println("⚠️  Slack bot token not configured, notifications will only be queued")
	}

	// Initialize raw transcript archive when configured
	var archive pipeline.Archiver
	if cfg.ArchiveEnabled() {
		log.Println("🗄️  Initializing transcript archive...")
		transcriptArchive, err := storage.NewTranscriptArchive(&cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize transcript archive: %v", err)
		}
		archive = transcriptArchive
	}

	// Initialize pipeline service
	log.Println("🔁 Initializing pipeline service...")
	pipelineService := pipeline.NewPipelineService(
		userRepo,
		meetingRepo,
		transcriptRepo,
		participantRepo,
		analysisRepo,
		notificationRepo,
		calendarSvc,
		vexaClient,
		vexaClient,
		analysisClient,
		slackClient,
		archive,
		locker,
		cfg,
		logger,
	)

	// Optional internal scheduler for deployments without external cron
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if cfg.Pipeline.SchedulerEnabled {
		if err := pipelineService.StartScheduler(schedulerCtx); err != nil {
			log.Fatalf("Failed to start internal scheduler: %v", err)
		}
		defer pipelineService.StopScheduler()
	}

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	pipelineHandler := handler.NewPipelineHandler(pipelineService, logger)
	cronAuth := httpmw.NewCronAuth(&cfg.Server)

	router := handler.NewRouter(cfg, pipelineHandler, cronAuth)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
