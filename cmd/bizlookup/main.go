package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/config"
	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/prompt"
	logpkg "github.com/kailas-cloud/bizlookup/internal/logger"
	"github.com/kailas-cloud/bizlookup/internal/metrics"
	chiTransport "github.com/kailas-cloud/bizlookup/internal/transport/chi"
	"github.com/kailas-cloud/bizlookup/internal/transport/gemini"
	"github.com/kailas-cloud/bizlookup/internal/transport/openai"
	completionuc "github.com/kailas-cloud/bizlookup/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/bizlookup/internal/usecase/health"
	lookupuc "github.com/kailas-cloud/bizlookup/internal/usecase/lookup"
	"github.com/kailas-cloud/bizlookup/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "bizlookup", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bizlookup server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("provider", cfg.Completion.Provider),
		zap.String("model", cfg.Completion.Model),
		zap.Bool("web_search", cfg.Completion.WebSearchEnabled()),
	)

	if !cfg.Completion.HasCredential() {
		// Not fatal: the UI explains how to configure the key.
		logger.Warn("No completion API key configured, every lookup will fail until one is set")
	}

	// Register completion metrics explicitly (no init())
	metrics.RegisterCompletionMetrics()

	ctx := context.Background()

	base, checker, err := buildProvider(ctx, cfg.Completion, logger)
	if err != nil {
		logger.Fatal("Failed to create completion provider", zap.Error(err))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budget completionuc.BudgetChecker
	if cfg.Completion.DailyTokenBudget > 0 || cfg.Completion.MonthlyTokenBudget > 0 {
		budget = completionuc.NewBudgetTracker(
			cfg.Completion.Provider,
			cfg.Completion.DailyTokenBudget, cfg.Completion.MonthlyTokenBudget,
			completionuc.BudgetAction(cfg.Completion.BudgetAction), logger,
		)
	}

	completer := buildCompleter(base, cfg.Completion, budget, logger)

	builder := prompt.Builder{
		Region:            cfg.Prompt.RegionValue(),
		MinResults:        cfg.Prompt.MinResults,
		MaxResults:        cfg.Prompt.MaxResults,
		ExtraInstructions: cfg.Prompt.ExtraInstructions,
	}

	lookupSvc := lookupuc.New(completer, builder, lookupuc.Options{
		Temperature: cfg.Completion.TemperatureValue(),
		WebSearch:   cfg.Completion.WebSearchEnabled(),
		Timeout:     time.Duration(cfg.Completion.TimeoutSec) * time.Second,
	}, logger)
	healthSvc := healthuc.New(checker)

	server := chiTransport.NewServer(lookupSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// completionProvider is a transport that also reports its own health.
type completionProvider interface {
	domain.Completer
	domain.HealthChecker
}

// buildProvider creates the base transport for the configured provider.
func buildProvider(ctx context.Context, cfg config.CompletionConfig, logger *zap.Logger) (completionProvider, healthuc.CompletionChecker, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c := openai.NewCompleter(&openai.Config{
			APIKey:               cfg.APIKey,
			BaseURL:              cfg.BaseURL,
			Model:                cfg.Model,
			WebSearchModelSuffix: cfg.WebSearchModelSuffix,
			Provider:             cfg.Provider,
			Logger:               logger,
		})
		return c, c, nil
	default:
		c, err := gemini.NewCompleter(ctx, &gemini.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("gemini: %w", err)
		}
		return c, c, nil
	}
}

// buildCompleter assembles the decorator chain: provider -> Throttled -> Instrumented
func buildCompleter(
	base domain.Completer,
	cfg config.CompletionConfig,
	budget completionuc.BudgetChecker,
	logger *zap.Logger,
) domain.Completer {
	completer := base

	// Throttled (outbound rate limit)
	if cfg.RateLimitPerMin > 0 {
		completer = completionuc.NewThrottled(completer, cfg.Provider, cfg.RateLimitPerMin, cfg.RateBurst, logger)
	}

	// Instrumented (budget + error categories, outermost)
	return completionuc.NewInstrumented(completer, cfg.Provider, cfg.Model, budget, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
