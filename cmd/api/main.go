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

	// Application Layer
	appService "todoreminder/internal/application/service"

	// Infrastructure Layer
	"todoreminder/internal/infrastructure/database/sqlite"
	lineClient "todoreminder/internal/infrastructure/line"
	mailClient "todoreminder/internal/infrastructure/mail"
	"todoreminder/internal/infrastructure/scheduler"

	// Interfaces Layer
	"todoreminder/internal/interfaces/api/handler"
	"todoreminder/internal/interfaces/api/router"

	// Packages
	"todoreminder/internal/pkg/clock"
	"todoreminder/internal/pkg/config"
	appLogger "todoreminder/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	startupHydrateTimeout = 30 * time.Second
	serverShutdownTimeout = 5 * time.Second
	schedulerStopTimeout  = 10 * time.Second
)

// buildTransport picks the notification transport named in the config. The
// LINE client is returned as well so its webhook can be mounted.
func buildTransport(cfg *config.Config, log appLogger.Logger) (appService.Transport, *lineClient.Client, error) {
	switch cfg.Notifier.Transport {
	case config.TransportSMTP:
		c, err := mailClient.NewClient(cfg.SMTP, log)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case config.TransportLine:
		c, err := lineClient.NewClient(cfg.Line, log)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		log.Warn("No notification transport configured; reminders will only be logged")
		return appService.NewLogTransport(log), nil, nil
	}
}

func gracefulShutdown(apiServer *http.Server, schedulers *appService.SchedulerHandle, db *gorm.DB, log appLogger.Logger) error {
	log.Info("Shutting down gracefully, press Ctrl+C again to force")

	// Stop accepting requests first so no new todos reach the scheduler
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	log.Info("Stopping scheduler...")
	stopCtx, cancelStop := context.WithTimeout(context.Background(), schedulerStopTimeout)
	defer cancelStop()
	if err := schedulers.Shutdown(stopCtx); err != nil {
		log.Error("Error stopping scheduler", err)
	}

	log.Info("Closing database connection...")
	if err := sqlite.CloseDB(db); err != nil {
		log.Error("Error closing database", err)
		return err
	}
	log.Info("Database connection closed.")
	return nil
}

func main() {
	// --- Initialization ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	appLog := appLogger.New(appLogger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	appLog.Info("Logger initialized.")

	// --- Infrastructure ---
	db, err := sqlite.NewDB(cfg.Database, appLog)
	if err != nil {
		appLog.Error("Failed to open database", err)
		os.Exit(1)
	}
	userRepo := sqlite.NewUserRepository(db)
	todoRepo := sqlite.NewTodoRepository(db)
	appLog.Info("Database and repositories initialized.")

	transport, line, err := buildTransport(cfg, appLog)
	if err != nil {
		appLog.Error("Failed to create notification transport", err)
		os.Exit(1)
	}

	// --- Application Services ---
	notifierSvc := appService.NewNotifierService(transport, cfg.Notifier, appLog)
	schedulers := appService.NewSchedulerHandle(func(sc config.Scheduler) appService.SchedulerService {
		return appService.NewSchedulerService(sc, todoRepo, userRepo, notifierSvc, scheduler.NewScheduler(appLog), clock.Real(), appLog)
	}, appLog)
	userSvc := appService.NewUserService(userRepo, clock.Real(), appLog)
	todoSvc := appService.NewTodoService(todoRepo, schedulers, appLog)
	appLog.Info("Application services initialized.")

	if cfg.FirstSuperuser != "" {
		if _, err := userSvc.EnsureSuperuser(context.Background(), cfg.FirstSuperuser); err != nil {
			appLog.Error("Failed to create first superuser", err)
		}
	}

	// --- Initialize Schedules ---
	schedulerSvc, err := schedulers.Init(context.Background(), cfg.Scheduler)
	if err != nil {
		appLog.Error("Failed to start scheduler", err)
		os.Exit(1)
	}
	hydrateCtx, cancelHydrate := context.WithTimeout(context.Background(), startupHydrateTimeout)
	if n, err := schedulerSvc.Hydrate(hydrateCtx); err != nil {
		// Log the error but continue; the background pass retries
		appLog.Error("Initial hydration failed", err)
	} else {
		appLog.Info(fmt.Sprintf("Initial hydration scheduled %d reminder(s).", n))
	}
	cancelHydrate()
	if err := schedulerSvc.StartBackgroundHydrator(); err != nil {
		appLog.Error("Failed to start background hydrator", err)
		os.Exit(1)
	}

	// --- API Handlers ---
	var lineHandler *handler.LineHandler
	if line != nil {
		lineHandler = handler.NewLineHandler(line, userSvc, appLog)
	}
	routerCfg := &router.Config{
		TodoHandler: handler.NewTodoHandler(todoSvc, appLog),
		UserHandler: handler.NewUserHandler(userSvc, appLog),
		Auth:        handler.NewAuthMiddleware(userSvc, appLog),
		LineHandler: lineHandler,
		Logger:      appLog,
	}
	echoRouter := router.NewRouter(routerCfg)

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start Server & Shutdown Handling ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stop()
		return gracefulShutdown(apiServer, schedulers, db, appLog)
	})

	if err := g.Wait(); err != nil {
		appLog.Error("Server exited with error", err)
		os.Exit(1)
	}
	appLog.Info("Graceful shutdown complete.")
}
