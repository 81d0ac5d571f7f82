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

	"github.com/kailas-cloud/wikidex/internal/config"
	"github.com/kailas-cloud/wikidex/internal/db"
	dbRedis "github.com/kailas-cloud/wikidex/internal/db/redis"
	"github.com/kailas-cloud/wikidex/internal/domain/chat"
	logpkg "github.com/kailas-cloud/wikidex/internal/logger"
	"github.com/kailas-cloud/wikidex/internal/metrics"
	"github.com/kailas-cloud/wikidex/internal/repository/anscache"
	budgetrepo "github.com/kailas-cloud/wikidex/internal/repository/budget"
	contentrepo "github.com/kailas-cloud/wikidex/internal/repository/content"
	chiTransport "github.com/kailas-cloud/wikidex/internal/transport/chi"
	"github.com/kailas-cloud/wikidex/internal/transport/confluence"
	openaiChat "github.com/kailas-cloud/wikidex/internal/transport/openai"
	agentuc "github.com/kailas-cloud/wikidex/internal/usecase/agent"
	healthuc "github.com/kailas-cloud/wikidex/internal/usecase/health"
	llmuc "github.com/kailas-cloud/wikidex/internal/usecase/llm"
	searchuc "github.com/kailas-cloud/wikidex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/wikidex/internal/usecase/usage"
	"github.com/kailas-cloud/wikidex/internal/version"
)

// app holds the wired services shared by the serve and chat modes.
type app struct {
	cfg     config.Config
	store   db.Store
	content *contentrepo.Repo
	search  *searchuc.Service
	agent   *agentuc.Service
	usage   *usageuc.Service
	health  *healthuc.Service
	logger  *zap.Logger
}

func main() {
	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting wikidex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("mode", mode),
		zap.String("model", cfg.LLM.Model),
	)

	a := buildApp(context.Background(), cfg, logger)
	if a.store != nil {
		defer a.store.Close()
	}

	switch mode {
	case "serve":
		runServe(a)
	case "chat":
		runChat(a)
	default:
		logger.Fatal("Unknown mode, expected serve or chat", zap.String("mode", mode))
	}
}

// buildApp is the composition root.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) *app {
	// Register domain metrics explicitly (no init())
	metrics.Register()

	// Key-value store is optional: without it the bot runs with in-memory
	// budget only and no answer cache.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		store = s
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Content store client and repository
	api, err := confluence.New(confluence.Config{
		BaseURL:  cfg.Confluence.BaseURL,
		Username: cfg.Confluence.Username,
		APIToken: cfg.Confluence.APIToken,
		Timeout:  time.Duration(cfg.Confluence.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to create content store client", zap.Error(err))
	}
	content := contentrepo.New(api, logger)
	searchSvc := searchuc.New(content, logger)

	// Single BudgetTracker shared by the completer chain and the usage service.
	var budget *llmuc.BudgetTracker
	budgetCfg := cfg.LLM.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := llmuc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = llmuc.BudgetActionReject
		}
		budget = llmuc.NewBudgetTracker(
			cfg.LLM.Model, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		// Connect persistence store — loads current counters from the cache.
		if store != nil {
			budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
			budget.WithStore(ctx, budgetStore)
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker llmuc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	base := openaiChat.NewCompleter(&openaiChat.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Logger:  logger,
	})
	completer := buildCompleter(base, cfg, store, budgetChecker, logger)

	agentSvc := agentuc.New(searchSvc, content, completer, logger).WithMaxRounds(cfg.LLM.MaxRounds)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader, cfg.LLM.Model)

	var dbPinger healthuc.DBPinger
	if store != nil {
		dbPinger = store
	}
	healthSvc := healthuc.New(content, base, dbPinger)

	return &app{
		cfg:     cfg,
		store:   store,
		content: content,
		search:  searchSvc,
		agent:   agentSvc,
		usage:   usageSvc,
		health:  healthSvc,
		logger:  logger,
	}
}

// buildCompleter assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildCompleter(
	base *openaiChat.Completer,
	cfg config.Config,
	store db.Store,
	budget llmuc.BudgetChecker,
	logger *zap.Logger,
) chat.Completer {
	var completer chat.Completer = base
	if store != nil && cfg.Cache.AnswerTTLSec > 0 {
		ttl := time.Duration(cfg.Cache.AnswerTTLSec) * time.Second
		completer = anscache.New(completer, store, cfg.LLM.Model, ttl, logger)
	}
	return llmuc.NewInstrumentedCompleter(completer, budget, logger)
}

func runServe(a *app) {
	server := chiTransport.NewServer(a.search, a.content, a.agent, a.usage, a.health, a.logger).
		WithLimits(a.cfg.Search.DefaultLimit, a.cfg.Search.MaxLimit)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(a.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(a.logger))
	r.Use(chiTransport.BearerAuthMiddleware(a.cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
