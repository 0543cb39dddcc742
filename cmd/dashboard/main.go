package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/svargasl/finpanel/internal/auth"
	"github.com/svargasl/finpanel/internal/background"
	"github.com/svargasl/finpanel/internal/cache"
	"github.com/svargasl/finpanel/internal/config"
	middlewareCustom "github.com/svargasl/finpanel/internal/middleware"
	"github.com/svargasl/finpanel/internal/routes"
	"github.com/svargasl/finpanel/internal/screens"
	"github.com/svargasl/finpanel/internal/session"
	"github.com/svargasl/finpanel/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("upstream", cfg.Upstream.BaseURL))

	// Cache store: Redis when configured, in-process otherwise.
	var (
		store       cache.Store
		redisClient *redis.Client
	)
	if cfg.Cache.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient, "finpanel")
		logger.Info("using redis list cache", slog.String("addr", cfg.Cache.RedisAddr))
	} else {
		store = cache.NewMemoryStore()
	}
	listCache := cache.New(store, cfg.Cache.TTL, logger)

	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)

	registry := session.NewRegistry()
	cookies := session.NewCookieManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.CookieSecure)
	sessions := session.NewManager(client, registry, cookies, listCache, logger)

	gate := auth.NewGate(sessions, cfg.Session.LoginPath, cfg.Session.DeniedPath)

	coordinator := screens.NewCoordinator(logger)
	verifier := screens.NewVerifier(cfg.Screens.VerifyDelay, logger)
	defer verifier.Close()
	pagers := screens.NewPagerSet(cfg.Screens.DefaultPageSize)

	janitor := background.NewJanitor(registry, coordinator, logger,
		cfg.Screens.SweepInterval, cfg.Session.TTL, cfg.Screens.PendingActionTTL)

	authHandler := screens.NewAuthHandler(sessions, coordinator, verifier, pagers, logger)
	usersScreen := screens.NewUsersScreen(client, listCache, pagers, coordinator, verifier, logger)
	requestsScreen := screens.NewRequestsScreen(client, listCache, pagers, coordinator, logger)
	profileScreen := screens.NewProfileScreen(client, sessions, logger)
	mutations := screens.NewMutationHandler(coordinator, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	loginLimit := middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Screens.LoginRequestsPerMinute}
	routes.RegisterRoutes(router, gate, authHandler, usersScreen, requestsScreen, profileScreen, mutations, loginLimit)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","cache":"down"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	go janitor.Start(janitorCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	janitorCancel()
	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
