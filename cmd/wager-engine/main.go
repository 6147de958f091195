package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/vkiragi/briefing/services/wager-engine/internal/backend"
	"github.com/vkiragi/briefing/services/wager-engine/internal/config"
	"github.com/vkiragi/briefing/services/wager-engine/internal/handlers"
	"github.com/vkiragi/briefing/services/wager-engine/internal/hub"
	"github.com/vkiragi/briefing/services/wager-engine/internal/orchestrator"
	"github.com/vkiragi/briefing/services/wager-engine/internal/prefs"
	"github.com/vkiragi/briefing/services/wager-engine/internal/providers/espn"
	"github.com/vkiragi/briefing/services/wager-engine/internal/scheduler"
	"github.com/vkiragi/briefing/services/wager-engine/internal/store"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

func main() {
	log.Println("=== Briefing Wager Engine ===")

	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs the event cache snapshot so a restart mid-slate doesn't
	// start cold
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("connected to Redis")

	db, err := prefs.Connect(cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	defer db.Close()
	log.Println("connected to Postgres")

	settingsStore := prefs.New(db, models.UserSettings{
		RefreshIntervalSec: cfg.Engine.RefreshIntervalSec,
		EventIntervalSec:   cfg.Engine.EventIntervalSec,
		Leagues:            cfg.Engine.Leagues,
	})

	eventCache := store.NewStore(cfg.Engine.EventCacheTTL, store.NewRedisSnapshot(redisClient))
	eventCache.Hydrate(ctx)

	sched := scheduler.New(eventCache, espn.New())
	backendClient := backend.New(cfg.Backend.URL, cfg.Backend.AuthToken)

	wsHub := hub.New()
	go wsHub.Run(ctx)

	engine := orchestrator.New(backendClient, sched, eventCache, settingsStore, wsHub, cfg.Engine.UserID)
	go engine.Run(ctx)

	handler := handlers.NewHandler(engine, eventCache, settingsStore, cfg.Engine.UserID)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Get("/ws", wsHub.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/wagers/live", handler.GetLiveWagers)
		r.Post("/refresh", handler.TriggerRefresh)
		r.Get("/events", handler.GetEvents)
		r.Get("/settings", handler.GetSettings)
		r.Put("/settings", handler.UpdateSettings)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("wager engine listening on %s", cfg.Server.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("server error: %v", err)
	case sig := <-shutdown:
		log.Printf("shutdown signal received: %v", sig)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
			srv.Close()
		}
	}
}
