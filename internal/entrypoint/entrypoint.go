package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	dbaudit "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/users"
	http_controllers "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/stats"
	"github.com/mrlokans/library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("Shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so in-flight jobs can finish
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

func Run(cfg *config.Config, version string, logger *zap.Logger) error {
	logger.Info("Starting library service", zap.String("version", version))

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if cfg.Seed.Enabled {
		if err := Seed(db, cfg, logger); err != nil {
			return err
		}
	}

	auditService := audit.NewService(dbaudit.NewRepository(db.DB), logger)
	defer auditService.Wait()

	lendingService := lending.NewService(db.DB, cfg.Lending, logger.Named("lending"))
	authService := auth.NewService(db.DB, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	rateLimiter := auth.NewRateLimiter(cfg.Auth)
	defer rateLimiter.Stop()

	csrfSecret, err := csrfKey(cfg.Auth.SessionSecret, logger)
	if err != nil {
		return err
	}

	jobs := &tasks.Jobs{
		Expirer:       lendingService,
		Cleaner:       auditService,
		Recorder:      auditService,
		ExpireEnabled: cfg.Lending.ExpireReservations,
		RetentionDays: cfg.Audit.RetentionDays,
		Logger:        logger.Named("jobs"),
	}

	// Interfaces stay nil unless the queue is actually running
	var taskQueue http_controllers.TaskQueue
	var enqueuer scheduler.Enqueuer
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, cfg.Tasks, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("Error closing task client", zap.Error(err))
			}
		}()
		taskClient.Register(jobs.Queues()...)
		taskQueue = taskClient
		enqueuer = taskClient
	}

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if taskClient != nil {
		taskClient.Start(bgCtx)
	}

	sched := scheduler.New(cfg.Maintenance, jobs, enqueuer, logger)
	if err := sched.Start(bgCtx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Lending:        lendingService,
		Books:          books.NewRepository(db.DB),
		Users:          users.NewRepository(db.DB),
		Stats:          stats.NewService(db.DB),
		Audit:          auditService,
		AuthService:    authService,
		SessionManager: sessionManager,
		RateLimiter:    rateLimiter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		HSTS:           cfg.Auth.SecureCookies,
		TaskQueue:      taskQueue,
		JobRunner:      sched,
		Logger:         logger,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		sched.Stop()
		if taskClient != nil && !taskClient.Stop(ctx) {
			logger.Warn("Task workers did not stop before the shutdown timeout")
		}
		cancelBackground()
	}

	return Serve(router, cfg, logger, onShutdown)
}

// Seed fills an empty database with the demo data set. Without a configured
// password a temporary one is generated and logged once.
func Seed(db *database.Database, cfg *config.Config, logger *zap.Logger) error {
	password := cfg.Seed.Password
	generated := password == ""
	if generated {
		var err error
		password, err = auth.GenerateTemporaryPassword()
		if err != nil {
			return fmt.Errorf("failed to generate seed password: %w", err)
		}
	}

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("invalid seed password: %w", err)
	}

	seeded, err := db.Seed(hash)
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	if seeded && generated {
		logger.Warn("Seeded demo accounts with a generated password, set SEED_PASSWORD to choose one",
			zap.String("password", password))
	}
	return nil
}

// csrfKey derives the CSRF key from AUTH_SESSION_SECRET, or generates one
// for this process.
func csrfKey(secret string, logger *zap.Logger) ([]byte, error) {
	if secret != "" {
		key, err := hex.DecodeString(secret)
		if err != nil {
			// Not hex, use as raw bytes
			key = []byte(secret)
		}
		return key, nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	logger.Info("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(generated)
}
