// HR Desk - natural-language HR assistant server
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

	"github.com/ashureev/hrdesk/internal/api"
	"github.com/ashureev/hrdesk/internal/chat"
	"github.com/ashureev/hrdesk/internal/config"
	"github.com/ashureev/hrdesk/internal/llm"
	"github.com/ashureev/hrdesk/internal/middleware"
	"github.com/ashureev/hrdesk/internal/policy"
	"github.com/ashureev/hrdesk/internal/prompt"
	"github.com/ashureev/hrdesk/internal/query"
	"github.com/ashureev/hrdesk/internal/role"
	"github.com/ashureev/hrdesk/internal/session"
	"github.com/ashureev/hrdesk/internal/store"
	"github.com/ashureev/hrdesk/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "provider", cfg.LLM.Provider)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	queryDB, err := store.OpenReadOnly(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open read-only query pool", "error", err)
		os.Exit(1)
	}
	defer func() { _ = queryDB.Close() }()

	status, err := repo.PolicyStatus(context.Background())
	if err != nil {
		slog.Warn("Failed to read handbook status", "error", err)
	} else if !status.Loaded {
		slog.Warn("HR handbook not loaded, policy questions will use the data path. Run: hrctl handbook load <file>")
	} else {
		slog.Info("HR handbook loaded", "chunks", status.Chunks, "pages", status.Pages)
	}

	completer, err := llm.New(cfg.LLM)
	if err != nil {
		slog.Error("Failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	catalog, err := role.Load()
	if err != nil {
		slog.Error("Failed to load role catalog", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	schemaCache := prompt.NewSchemaCache(repo, catalog.Schema, cfg.SchemaCacheTTL)
	policyService := policy.NewService(repo, logger)
	defer policyService.Wait()

	deps := chat.Deps{
		Catalog:   catalog,
		Completer: completer,
		Runner:    query.NewExecutor(queryDB, cfg.QueryTimeout),
		Policy:    policyService,
		Schema:    schemaCache,
		Turns:     repo,
		Validate:  validator.New(validator.WithRequiredStructEnabled()),
		Logger:    logger,
	}
	pipelines := make([]*chat.Pipeline, 0, len(catalog.Profiles))
	for _, name := range catalog.Names() {
		profile, err := catalog.Profile(name)
		if err != nil {
			slog.Error("Failed to load role profile", "role", name, "error", err)
			os.Exit(1)
		}
		pipelines = append(pipelines, chat.NewPipeline(profile, deps))
	}

	conversationLogger, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}

	// Initialize handlers.
	chatHandler := chat.NewHandler(pipelines, repo, repo, conversationLogger, chat.HandlerConfig{
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RateLimitRequests:  cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow:    cfg.RateLimit.WindowDuration,
	})
	defer chatHandler.Close()
	adminHandler := api.NewHandler(repo, schemaCache, config.Version)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(session.Middleware(cfg.SessionTTL, cfg.IsDevelopment()))

	// Public routes.
	adminHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	// Serve embedded chat page (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*cfg.LLM.Timeout + cfg.QueryTimeout + 10*time.Second, // two completion calls and one query
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeperDone := session.StartSweeper(ctx, repo, cfg.SessionTTL, cfg.SessionSweep)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	<-sweeperDone

	slog.Info("Server stopped successfully")
}
