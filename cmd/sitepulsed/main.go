package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/haukened/sitepulse/internal/pulse/common/clock"
	"github.com/haukened/sitepulse/internal/pulse/common/log"
	"github.com/haukened/sitepulse/internal/pulse/config"
	"github.com/haukened/sitepulse/internal/pulse/gateways/httpapi"
	"github.com/haukened/sitepulse/internal/pulse/repos/archive/bolt"
	"github.com/haukened/sitepulse/internal/pulse/repos/messages"
	"github.com/haukened/sitepulse/internal/pulse/repos/presence"
	"github.com/haukened/sitepulse/internal/pulse/repos/uniques"
	"github.com/haukened/sitepulse/internal/pulse/repos/visits"
	"github.com/haukened/sitepulse/internal/pulse/services/dashboard"
	"github.com/haukened/sitepulse/internal/pulse/services/tracking"
)

const (
	version = "0.1.0-dev"
	appName = "sitepulsed"
)

// Application holds all the components of the server.
type Application struct {
	config   *config.AppConfig
	server   *httpapi.Server
	presence *presence.Tracker
	archive  *bolt.Archive // nil when archiving is disabled
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info(map[string]any{
		"app":               appName,
		"version":           version,
		"env":               cfg.Env,
		"log_level":         cfg.LogLevel,
		"port":              cfg.Port,
		"static_dir":        cfg.StaticDir,
		"presence_window":   cfg.PresenceWindow.String(),
		"presence_mode":     cfg.PresenceMode,
		"messages_capacity": cfg.MessagesCapacity,
		"messages_archive":  cfg.MessagesArchive,
	}, "Starting sitepulse server")

	app, err := buildApplication(cfg, clock.RealClock{}, prometheus.NewRegistry())
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "sitepulse server stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig, clk clock.Clock, reg *prometheus.Registry) (*Application, error) {
	logger := log.GetLogger()

	counter, err := visits.New(visits.Options{
		Recency:    visits.Recency(cfg.VisitsRecency),
		RecentSize: cfg.VisitsRecentSize,
		MaxPaths:   cfg.VisitsMaxPaths,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create visit counter: %w", err)
	}

	online := presence.New(presence.Options{
		Clock:  clk,
		Logger: logger,
		Window: cfg.PresenceWindow,
		Mode:   presence.Mode(cfg.PresenceMode),
	})

	var archive *bolt.Archive
	storeOpts := messages.Options{
		Clock:    clk,
		Logger:   logger,
		Capacity: cfg.MessagesCapacity,
	}
	if cfg.MessagesArchive != "" {
		archive, err = bolt.New(cfg.MessagesArchive)
		if err != nil {
			return nil, fmt.Errorf("failed to open message archive: %w", err)
		}
		storeOpts.Archive = archive
		log.Info(map[string]any{"path": cfg.MessagesArchive}, "Message archive opened")
	}
	store := messages.New(storeOpts)

	est := uniques.New(uint64(cfg.UniquesExpected), cfg.UniquesFPRate)

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gauges := httpapi.Gauges{
		OnlineUsers:      online.ActiveCount,
		TotalVisits:      counter.TotalVisits,
		MessagesTotal:    store.Count,
		PendingExpiries:  online.Scheduled,
		MessagesRetained: store.Len,
	}
	if archive != nil {
		gauges.MessagesArchived = archive.Len
	}
	metrics := httpapi.NewMetrics(reg, gauges)

	router := httpapi.NewRouter(httpapi.RouterOptions{
		Tracker: tracking.New(tracking.Options{
			Visits:   counter,
			Presence: online,
			Uniques:  est,
		}),
		Messages: store,
		Dashboard: dashboard.New(dashboard.Options{
			Visits:   counter,
			Presence: online,
			Messages: store,
			Uniques:  est,
			Clock:    clk,
		}),
		StaticDir: cfg.StaticDir,
		Metrics:   metrics,
		Gatherer:  reg,
		Logger:    logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	return &Application{
		config:   cfg,
		server:   httpapi.NewServer(addr, cfg.MaxConns, router, logger),
		presence: online,
		archive:  archive,
	}, nil
}

// Run starts the HTTP server and the presence sweeper and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		app.presence.Run(sweepCtx, app.config.PresenceSweep)
	}()

	log.Info(map[string]any{
		"address": app.server.Address(),
	}, "sitepulse server started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	stopSweep()
	<-sweepDone

	var runErr error
	if err := app.server.Stop(shutdownCtx); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during HTTP server shutdown")
		runErr = fmt.Errorf("shutdown: %w", err)
	}

	if app.archive != nil {
		if err := app.archive.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing message archive")
		}
	}

	if runErr == nil {
		log.Info(nil, "Graceful shutdown completed")
	}
	return runErr
}
