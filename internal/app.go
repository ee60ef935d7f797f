package internal

import (
	"context"
	"errors"
	"fmt"
	"listenerd/internal/archive"
	"listenerd/internal/controllers"
	"listenerd/internal/providers"
	"listenerd/internal/statistic"
	"listenerd/internal/statistic/interfaces"
	"listenerd/internal/structures"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server

	conf        *structures.Config
	logger      providers.Logger
	scheduler   interfaces.SchedulerInterface
	mirror      archive.SampleMirrorInterface
	fileManager *statistic.FileManager
}

func NewApp(
	healthController *controllers.HealthController,
	scheduler interfaces.SchedulerInterface,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
	mirror archive.SampleMirrorInterface,
	fileManager *statistic.FileManager,
) *App {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", providers.MetricsMiddleware(metrics, router, apiMux))

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:        conf,
		logger:      logger,
		scheduler:   scheduler,
		mirror:      mirror,
		fileManager: fileManager,
	}
}

// Run restores persisted state, starts the scheduler and serves HTTP until
// SIGINT or SIGTERM.
func (app *App) Run() error {
	defer app.close()

	app.logger.Infof(providers.TypeApp, "Starting %s", app.conf.AppName)
	if err := app.scheduler.Restore(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	app.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", app.WebServer.Addr)
		if err := app.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-stop:
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	app.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.WebServer.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if err := app.scheduler.Persist(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		app.logger.Infof(providers.TypeApp, "gracefully stopped")
	}
	return runErr
}

// RunOnce performs a single collection pass and exits, for cron style
// deployments. Archive failures are returned so the process exits non-zero.
func (app *App) RunOnce(ctx context.Context) error {
	defer app.close()

	if err := app.scheduler.Restore(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	snap, err := app.scheduler.RunOnce(ctx)
	if err != nil {
		return err
	}
	if err := app.scheduler.Persist(); err != nil {
		return err
	}
	app.logger.Infof(providers.TypeApp, "Single pass %s done: %d listeners", snap.CycleID, snap.TotalListeners)
	return nil
}

func (app *App) close() {
	if err := app.mirror.Close(); err != nil {
		app.logger.Warnf(providers.TypeApp, "Closing sample mirror: %s", err)
	}
	app.fileManager.Close()
	app.logger.Close()
}
