package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/wings-of-wisdom/internal/api"
	"github.com/terra-clan/wings-of-wisdom/internal/catalog"
	"github.com/terra-clan/wings-of-wisdom/internal/chat"
	"github.com/terra-clan/wings-of-wisdom/internal/cleanup"
	"github.com/terra-clan/wings-of-wisdom/internal/config"
	"github.com/terra-clan/wings-of-wisdom/internal/contact"
	"github.com/terra-clan/wings-of-wisdom/internal/content"
	"github.com/terra-clan/wings-of-wisdom/internal/countdown"
	"github.com/terra-clan/wings-of-wisdom/internal/models"
	"github.com/terra-clan/wings-of-wisdom/internal/quiz"
	"github.com/terra-clan/wings-of-wisdom/internal/scheduler"
	"github.com/terra-clan/wings-of-wisdom/internal/services"
	"github.com/terra-clan/wings-of-wisdom/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting wings-of-wisdom",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"redis", cfg.Redis.Enabled,
		"assistant", cfg.Chat.Enabled(),
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Load site content
	loader, err := content.Load(cfg.Content.Dir)
	if err != nil {
		slog.Error("failed to load content", "dir", cfg.Content.Dir, "error", err)
		os.Exit(1)
	}

	engine, err := quiz.NewEngine(loader.Questions())
	if err != nil {
		slog.Error("failed to build quiz", "error", err)
		os.Exit(1)
	}

	// Initialize database repository (runs migrations)
	repo, err := storage.Open(initCtx, storage.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("database connected successfully", "driver", cfg.Database.Driver)

	if cfg.Admin.APIKey != "" {
		admin := &models.ApiClient{
			Name:        cfg.Admin.Name,
			ApiKey:      cfg.Admin.APIKey,
			IsActive:    true,
			Permissions: []string{"contact:*"},
		}
		if err := repo.EnsureApiClient(initCtx, admin); err != nil {
			slog.Error("failed to seed admin client", "error", err)
			os.Exit(1)
		}
		slog.Info("admin client ready", "client", admin.Name, "key_prefix", admin.MaskedApiKey())
	}

	// Initialize readiness probes
	registry := services.NewRegistry()
	registry.Register(services.NewPingProbe("database", repo.Ping))

	if cfg.Database.Driver == "postgres" {
		probe, err := services.NewPostgresProbe(cfg.Database.DSN)
		if err != nil {
			slog.Error("failed to create postgres probe", "error", err)
			os.Exit(1)
		}
		defer probe.Close()
		registry.Register(probe)
	}

	// Session stores: redis when enabled, process memory otherwise
	var quizStore quiz.Store = quiz.NewMemoryStore()
	var chatStore chat.ConversationStore = chat.NewMemoryConversationStore()
	if cfg.Redis.Enabled {
		rdb, err := services.NewRedisClient(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()

		registry.Register(services.NewRedisProbe(rdb))
		quizStore = quiz.NewRedisStore(rdb, cfg.Quiz.SessionTTL)
		chatStore = chat.NewRedisConversationStore(rdb, cfg.Chat.TTL)
		slog.Info("redis connected successfully", "address", cfg.Redis.Address)
	}

	// Chat assistant falls back to canned answers without an API key
	var completer chat.Completer
	if cfg.Chat.Enabled() {
		completer = chat.NewOpenRouterClient(chat.OpenRouterConfig{
			APIKey:      cfg.Chat.APIKey,
			BaseURL:     cfg.Chat.BaseURL,
			Model:       cfg.Chat.Model,
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.Temperature,
			Timeout:     cfg.Chat.Timeout,
			SiteURL:     cfg.Chat.SiteURL,
			SiteName:    cfg.Chat.SiteName,
		})
	}

	quizManager := quiz.NewManager(engine, quizStore, repo, cfg.Quiz.SessionTTL)
	assistant := chat.NewAssistant(completer, chatStore, cfg.Chat.TTL,
		chat.WithHistoryLimit(cfg.Chat.HistoryLimit))

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(map[string]cleanup.Purger{
		"quiz": quizManager,
		"chat": assistant,
	}, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Catalog:        catalog.New(loader.Laureates()),
		Content:        loader,
		Quiz:           quizManager,
		Chat:           assistant,
		Contact:        contact.NewService(repo),
		Event:          countdown.NewEvent(cfg.Event.CeremonyAt),
		Registry:       registry,
		Clients:        repo,
		Scheduler:      scheduler.NewClock(),
		SearchDebounce: cfg.Search.Debounce,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()
	<-cleaner.Done()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("wings-of-wisdom stopped")
}
