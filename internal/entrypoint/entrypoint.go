package entrypoint

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
	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/auth"
	"github.com/ABFCode/Librium-sub000/internal/config"
	http_controllers "github.com/ABFCode/Librium-sub000/internal/http"
	"github.com/ABFCode/Librium-sub000/internal/importers"
	"github.com/ABFCode/Librium-sub000/internal/logging"
	"github.com/ABFCode/Librium-sub000/internal/scheduler"
	"github.com/ABFCode/Librium-sub000/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	listenErr := make(chan error, 1)
	go func() {
		logging.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logging.Info("Shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before draining workers they may enqueue into.
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	}
	if onShutdown != nil {
		onShutdown(ctx)
	}

	logging.Info("Server exiting")
	return nil
}

func Run(cfg *config.Config, version string) error {
	logging.Init(cfg.Logging)
	defer logging.Sync()

	logging.Info("Starting Librium", zap.String("version", version))

	// Imports go through the persistent task queue when it is enabled and
	// through an in-process goroutine otherwise.
	var (
		taskClient *tasks.Client
		background *importers.Background
		dispatcher importers.Dispatcher
		err        error
	)
	taskCfg := tasks.Config{
		Workers:           cfg.Tasks.Workers,
		MaxRetries:        cfg.Tasks.MaxRetries,
		RetryDelay:        cfg.Tasks.RetryDelay,
		TaskTimeout:       cfg.Tasks.TaskTimeout,
		ReleaseAfter:      cfg.Tasks.ReleaseAfter,
		CleanupInterval:   cfg.Tasks.CleanupInterval,
		RetentionDuration: cfg.Tasks.RetentionDuration,
	}
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logging.Error("Error closing task client", zap.Error(err))
			}
		}()
		dispatcher = tasks.NewImportDispatcher(taskClient)
	} else {
		logging.Warn("Task queue disabled, imports run in-process and are lost on restart")
		background = importers.NewBackground(0)
		dispatcher = background
	}

	core, err := OpenCore(cfg, dispatcher)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			logging.Error("Error closing database", zap.Error(err))
		}
	}()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var cleaner http_controllers.BlobCleaner
	if taskClient != nil {
		taskClient.Register(
			tasks.NewImportBookQueue(core.Pipeline, taskCfg),
			tasks.NewDeleteBlobsQueue(core.Blobs, taskCfg),
		)
		go taskClient.Start(workerCtx)
		cleaner = taskClient
	} else {
		background.Start(workerCtx, core.Pipeline.Advance)
		cleaner = tasks.InlineBlobCleaner{Deleter: core.Blobs}
	}

	sweeper := scheduler.NewStaleJobSweeper(core.Pipeline, scheduler.StaleJobConfig{
		Enabled:    cfg.Import.SweepEnabled,
		Schedule:   cfg.Import.SweepSchedule,
		StaleAfter: cfg.Import.StaleAfter,
	})
	if err := sweeper.Start(workerCtx); err != nil {
		return fmt.Errorf("failed to start stale job sweeper: %w", err)
	}

	authMiddleware, err := auth.NewMiddleware(core.Users, cfg.Auth)
	if err != nil {
		return err
	}
	logging.Info("Authentication configured",
		zap.String("mode", string(cfg.Auth.Mode)),
		zap.Bool("local_identity", cfg.Auth.LocalIdentityAllowed()))

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:           core.DB,
		Imports:            core.Pipeline,
		Users:              core.Users,
		Books:              core.Books,
		Progress:           core.Progress,
		Blobs:              core.Blobs,
		Uploads:            core.Blobs,
		BlobCleaner:        cleaner,
		MaxUploadSize:      cfg.Import.MaxFileSize,
		AuthMiddleware:     authMiddleware,
		AllowExplicitOwner: cfg.Auth.ExplicitOwnerAllowed(),
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		Version:            version,
	})

	onShutdown := func(ctx context.Context) {
		sweeper.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancelWorkers()
		if background != nil {
			background.Close()
		}
	}

	return Serve(router, cfg, onShutdown)
}
