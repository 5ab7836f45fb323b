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

	goredis "github.com/redis/go-redis/v9"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/middleware"
	"starforge-server/internal/scenario"
	"starforge-server/internal/schema"
	"starforge-server/internal/server"
	"starforge-server/internal/share"
	"starforge-server/internal/shared/config"
	"starforge-server/internal/shared/database"
	"starforge-server/internal/shared/logger"
	"starforge-server/internal/shared/redis"
	"starforge-server/internal/snapshot"
	"starforge-server/internal/ws"
)

// shareLinkTTL bounds how long a short share link stays resolvable.
const shareLinkTTL = 7 * 24 * time.Hour

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Init()
	log := slog.With("component", "main")
	cfg := config.GlobalConfig

	db, err := database.Open()
	if err != nil {
		log.Error("Failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Error("Failed to run snapshot store migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.Connect()
	if err != nil {
		log.Warn("Redis connection failed, continuing without it", "error", err)
	}
	var linkBackend *goredis.Client
	if redisClient != nil {
		defer redisClient.Close()
		linkBackend = redisClient.Client
	}

	registry := bodytype.NewRegistry()
	limits := scenario.Limits{
		MaxStars:         cfg.Editor.MaxStars,
		MaxBodiesPerStar: cfg.Editor.MaxBodiesPerStar,
		CanvasWidth:      cfg.Editor.CanvasWidth,
		CanvasHeight:     cfg.Editor.CanvasHeight,
	}

	snapshotRepo := snapshot.NewRepository(db, slog.Default())
	scenarioService := scenario.NewService(
		registry,
		limits,
		scenario.DefaultSettings(cfg.Export.CompatibilityVersion),
		snapshotRepo,
		slog.Default(),
	)

	hub := ws.NewHub(slog.Default())
	scenarioService.SetNotifier(hub)

	links := share.NewLinkStore(linkBackend, shareLinkTTL, slog.Default())
	validator := schema.NewValidator()

	routes := server.NewRoutes(db, scenarioService, registry, validator, links, hub, slog.Default())
	mux := routes.Setup()

	corsMiddleware := middleware.NewCORS()
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		Enabled:           cfg.RateLimit.Enabled,
	})

	handler := corsMiddleware.Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starforge editor server starting",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
