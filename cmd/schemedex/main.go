package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/schemedex/internal/cache"
	"github.com/kailas-cloud/schemedex/internal/config"
	domscheme "github.com/kailas-cloud/schemedex/internal/domain/scheme"
	"github.com/kailas-cloud/schemedex/internal/embedding"
	"github.com/kailas-cloud/schemedex/internal/index"
	logpkg "github.com/kailas-cloud/schemedex/internal/logger"
	"github.com/kailas-cloud/schemedex/internal/metrics"
	chiTransport "github.com/kailas-cloud/schemedex/internal/transport/chi"
	"github.com/kailas-cloud/schemedex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/schemedex/internal/usecase/health"
	schemeuc "github.com/kailas-cloud/schemedex/internal/usecase/scheme"
	searchuc "github.com/kailas-cloud/schemedex/internal/usecase/search"
	"github.com/kailas-cloud/schemedex/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting schemedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("dimension", cfg.Engine.Dimension),
	)

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Retrieval engine — in-process, deterministic hash embeddings
	embedder, err := embedding.New(cfg.Engine.Dimension)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	engine, err := index.New(cfg.Engine.Dimension)
	if err != nil {
		logger.Fatal("Failed to create index", zap.Error(err))
	}
	searchSvc := searchuc.New(engine, embedder, logger)

	// Result cache: Redis primary (optional) with in-memory LRU fallback
	memCache := cache.NewMemory(cfg.Cache.MemoryCapacity)
	var primary cache.Backend
	if len(cfg.Cache.Addrs) > 0 {
		redis, err := cache.NewRedis(cache.RedisConfig{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			// Degrade to in-memory only; the fallback keeps serving.
			logger.Warn("Redis cache unavailable, using in-memory cache only", zap.Error(err))
		} else {
			defer redis.Close()
			primary = redis
			logger.Info("Connected to Redis cache", zap.Strings("addrs", cfg.Cache.Addrs))
		}
	}
	resultCache := cache.NewLayered(primary, memCache, logger)

	// Scheme catalog
	schemeSvc := schemeuc.New(searchSvc, resultCache, logger)
	if cfg.Engine.SchemesPath != "" {
		schemes, err := loadSchemes(cfg.Engine.SchemesPath)
		if err != nil {
			logger.Fatal("Failed to load scheme catalog", zap.Error(err))
		}
		if err := schemeSvc.Initialize(context.Background(), schemes); err != nil {
			logger.Fatal("Failed to index scheme catalog", zap.Error(err))
		}
		logger.Info("Scheme catalog indexed",
			zap.String("path", cfg.Engine.SchemesPath),
			zap.Int("schemes", schemeSvc.Count()),
		)
	}

	// Answer composer — optional
	var answerer chiTransport.AnswerComposer
	if cfg.Answer.APIKey != "" {
		answerer = openai.NewAnswerer(&openai.Config{
			APIKey:   cfg.Answer.APIKey,
			BaseURL:  cfg.Answer.BaseURL,
			Model:    cfg.Answer.Model,
			Provider: cfg.Answer.Provider,
			Logger:   logger,
		})
		logger.Info("Answer composer enabled", zap.String("model", cfg.Answer.Model))
	}

	// Health service
	healthSvc := healthuc.New(searchSvc, resultCache)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, schemeSvc, healthSvc, answerer, chiTransport.Options{
		DefaultTopK:  cfg.Engine.DefaultTopK,
		MaxTopK:      cfg.Engine.MaxTopK,
		MaxBatchSize: cfg.Engine.MaxBatchSize,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// loadSchemes reads the scheme catalog from a JSON file.
func loadSchemes(path string) ([]domscheme.Scheme, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read schemes file: %w", err)
	}
	var schemes []domscheme.Scheme
	if err := json.Unmarshal(data, &schemes); err != nil {
		return nil, fmt.Errorf("parse schemes file: %w", err)
	}
	return schemes, nil
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
			reqLogger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
