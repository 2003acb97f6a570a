package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kioskhub/kiosk-gateway/internal/analytics"
	"github.com/kioskhub/kiosk-gateway/internal/cache"
	"github.com/kioskhub/kiosk-gateway/internal/channel"
	"github.com/kioskhub/kiosk-gateway/internal/channel/webchat"
	"github.com/kioskhub/kiosk-gateway/internal/config"
	"github.com/kioskhub/kiosk-gateway/internal/dispatch"
	"github.com/kioskhub/kiosk-gateway/internal/filter"
	"github.com/kioskhub/kiosk-gateway/internal/health"
	"github.com/kioskhub/kiosk-gateway/internal/kiosk"
	"github.com/kioskhub/kiosk-gateway/internal/logging"
	"github.com/kioskhub/kiosk-gateway/internal/scheduler"
	"github.com/kioskhub/kiosk-gateway/internal/server"
	"github.com/kioskhub/kiosk-gateway/internal/session"
	"github.com/kioskhub/kiosk-gateway/internal/translate"
	"github.com/kioskhub/kiosk-gateway/internal/tui"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	tuiFlag := flag.Bool("tui", false, "Run the interactive terminal kiosk instead of the daemon")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.WithComponent("main").Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logging.WithComponent("main").Error("Invalid config", "error", err)
		os.Exit(1)
	}

	logging.Configure(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.WithComponent("main")
	logger.Info("Starting Kiosk-Gateway", "version", version)

	tracker := health.NewTracker()
	dispatcher, err := dispatch.New(&cfg.Models, tracker, logging.WithComponent("dispatch"))
	if err != nil {
		logger.Error("Failed to build model failover chain", "error", err)
		os.Exit(1)
	}
	logger.Info("Model failover chain ready", "models", dispatcher.Keys())

	contentFilter, err := filter.New(cfg.Filter.Enabled, cfg.Filter.Patterns)
	if err != nil {
		logger.Error("Invalid filter patterns", "error", err)
		os.Exit(1)
	}

	var translator translate.Translator
	if cfg.Translator.Enabled {
		translator = translate.NewHTTPTranslator(cfg.Translator)
		logger.Info("Translator enabled", "url", cfg.Translator.URL)
	}

	var sink analytics.Sink = analytics.NopSink{}
	var store *analytics.Store
	if cfg.Analytics.Enabled {
		store, err = analytics.NewStore(cfg.Analytics.DBPath)
		if err != nil {
			logger.Error("Failed to open analytics store", "error", err, "path", cfg.Analytics.DBPath)
			os.Exit(1)
		}
		defer store.Close()
		sink = store
		logger.Info("Analytics store opened", "path", cfg.Analytics.DBPath)
	}

	registry := session.NewRegistry()
	responseCache := cache.New(cfg.Cache.GetTTL(), cfg.Cache.MaxSize)

	orch := kiosk.New(cfg, responseCache, dispatcher, tracker, registry,
		contentFilter, translator, sink, logging.WithComponent("kiosk"))
	if store != nil {
		orch.SetInsights(store)
	}

	if *tuiFlag {
		runTUI(orch, logger)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recorder scheduler.MetricRecorder
	if store != nil {
		recorder = store
	}
	sched := scheduler.New(dispatcher, tracker, orch, recorder, logging.WithComponent("scheduler"))
	sched.Start()
	logger.Info("Scheduler started")

	adapters := []channel.Adapter{
		webchat.New(cfg.Channels.WebChat.Port, cfg.Channels.WebChat.Enabled, logging.WithComponent("webchat")),
	}
	bridge := channel.NewBridge(orch, adapters, logging.WithComponent("channel"))
	go bridge.Run(ctx)

	srv := server.New(cfg, orch, registry, logging.WithComponent("server"))
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Stopping scheduler")
	sched.Stop()

	logger.Info("Flushing sessions")
	for _, sess := range registry.List() {
		orch.EndSession(sess.ID)
	}

	logger.Info("Stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
}

func runTUI(orch *kiosk.Orchestrator, logger *slog.Logger) {
	app := tui.NewApp(orch)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		os.Exit(1)
	}
}
