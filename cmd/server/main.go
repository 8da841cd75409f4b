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

	"github.com/ikkim/talentbase-backend/config"
	"github.com/ikkim/talentbase-backend/internal/app/controller"
	"github.com/ikkim/talentbase-backend/internal/app/repository"
	"github.com/ikkim/talentbase-backend/internal/app/service"
	"github.com/ikkim/talentbase-backend/internal/db"
	"github.com/ikkim/talentbase-backend/internal/middleware"
	"github.com/ikkim/talentbase-backend/internal/notifier"
	"github.com/ikkim/talentbase-backend/internal/router"
	"github.com/ikkim/talentbase-backend/internal/scheduler"
	"github.com/ikkim/talentbase-backend/pkg/inmem"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	redispkg "github.com/ikkim/talentbase-backend/pkg/redis"
	"github.com/ikkim/talentbase-backend/pkg/util"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting TalentBase Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Attempt limiting and token revocation live in Redis when it is enabled
	var (
		limiter service.AttemptLimiter
		revoker service.TokenRevoker
	)
	if cfg.Redis.Enabled {
		if err := redispkg.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer redispkg.Close()
		limiter = redispkg.NewAttemptLimiter(redispkg.GetClient(), cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
		revoker = redispkg.NewRevocationList(redispkg.GetClient())
	} else {
		logger.Warn("Redis disabled, using in-process rate limiting and revocation", nil)
		limiter = inmem.NewAttemptLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
		revoker = inmem.NewRevocationList()
	}

	// Notifications
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	dispatcher, err := newDispatcher(rootCtx, &cfg.Notifier)
	if err != nil {
		logger.Fatal("Failed to initialize notifier", err)
	}
	dispatcher.Start(rootCtx)

	// Initialize services
	conn := db.GetDB()
	identityService := service.NewIdentityService(service.IdentityDependencies{
		Repositories: repository.NewRepositories(conn),
		Transactions: repository.NewTransactionManager(conn),
		Hasher:       util.NewBcryptHasher(bcrypt.DefaultCost),
		Notifier:     dispatcher,
		Clock:        util.SystemClock{},
		Sessions:     service.NewJWTSessionIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry),
		Limiter:      limiter,
		Revoker:      revoker,
	}, service.IdentityOptionsFromConfig(cfg.Identity))

	var cleanup *scheduler.CleanupScheduler
	if cfg.Cleanup.Enabled {
		cleanup = scheduler.NewCleanupScheduler(identityService, cfg.Cleanup.Schedule)
		if err := cleanup.Start(); err != nil {
			logger.Fatal("Failed to start cleanup scheduler", err)
		}
	}

	// Setup router
	r := router.NewRouter(
		controller.NewAuthController(identityService),
		middleware.NewAuthMiddleware(cfg.JWT.Secret, revoker),
		cfg,
	)
	engine, err := r.Setup()
	if err != nil {
		logger.Fatal("Failed to setup router", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	if cleanup != nil {
		cleanup.Stop()
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Error("Notifier did not drain before timeout", err)
	}

	logger.Info("Server stopped successfully")
}

func newDispatcher(ctx context.Context, cfg *config.NotifierConfig) (*notifier.Dispatcher, error) {
	var source notifier.TemplateSource = notifier.EmbeddedSource{}
	if cfg.TemplateBucket != "" {
		s3Source, err := notifier.NewS3Source(ctx, cfg.AWSRegion, cfg.TemplateBucket, cfg.TemplatePrefix, cfg.AWSAccessKeyID, cfg.AWSSecretKey)
		if err != nil {
			return nil, err
		}
		source = notifier.FallbackSource{Primary: s3Source, Secondary: notifier.EmbeddedSource{}}
	}

	var transport notifier.Transport
	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, errors.New("RESEND_API_KEY is required when NOTIFIER_PROVIDER=resend")
		}
		transport = notifier.NewResendTransport(cfg.ResendAPIKey)
	case "log", "":
		transport = notifier.NewLogTransport(os.Stdout)
	default:
		return nil, fmt.Errorf("unknown notifier provider %q", cfg.Provider)
	}

	logger.Info("Notifier configured", map[string]interface{}{
		"provider":        cfg.Provider,
		"template_bucket": cfg.TemplateBucket,
		"workers":         cfg.Workers,
	})

	return notifier.NewDispatcher(notifier.Config{
		From:      cfg.FromAddress,
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, notifier.NewRenderer(source), transport), nil
}
