// huntboard-tracker-service
//
// Status lifecycle engine for a job seeker's vacancies and recruiter contacts.
// Exposes a REST API used by the Gateway to implement:
//   - status transitions validated against per-kind transition graphs
//   - append-only status history (the ledger) per entity
//   - free-text notes and direct field edits (status excluded)
//   - per-status stats and pipeline funnels
//
// Every committed transition publishes EVENT_STATUS_CHANGED to Redis for
// Gateway SSE forward.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"huntboard/tracker-service/internal/analytics"
	"huntboard/tracker-service/internal/config"
	"huntboard/tracker-service/internal/db"
	"huntboard/tracker-service/internal/events"
	"huntboard/tracker-service/internal/httpapi"
	"huntboard/tracker-service/internal/lifecycle"
	"huntboard/tracker-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[tracker-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[tracker-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[tracker-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := store.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("[tracker-service] Migrations: %v", err)
	}
	log.Println("[tracker-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[tracker-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[tracker-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[tracker-service] Redis connected ✓")

	// ── Domain services ──────────────────────────────────────────────────────
	ledger := store.NewLedgerStore(pool)
	publisher := events.NewPublisher(rdb, logger)

	vacancies := lifecycle.NewService(
		lifecycle.Vacancies, lifecycle.VacancyEffects,
		store.NewVacancyStore(pool, ledger), ledger, publisher, logger)
	recruiters := lifecycle.NewService(
		lifecycle.Recruiters, lifecycle.RecruiterEffects,
		store.NewRecruiterStore(pool, ledger), ledger, publisher, logger)

	funnel := analytics.NewService(pool)
	collector := analytics.NewCollector(funnel, cfg.AnalyticsRefresh)
	if err := collector.Start(ctx); err != nil {
		log.Fatalf("[tracker-service] Analytics collector: %v", err)
	}
	defer collector.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	api := httpapi.New(vacancies, recruiters, funnel, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[tracker-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[tracker-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[tracker-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[tracker-service] Shutdown error: %v", err)
	}
	log.Println("[tracker-service] Stopped.")
}
