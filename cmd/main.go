// jobhunter-bot — conversational vacancy search over Telegram.
//
// Walks users through a city → position → salary → result-count interview,
// runs the search against the HeadHunter API, keeps favorites, history and
// analytics in PostgreSQL, and polls subscriptions in the background to
// notify owners about new listings.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kirill-Eltsov/JobHunter/internal/bot"
	"github.com/Kirill-Eltsov/JobHunter/internal/config"
	"github.com/Kirill-Eltsov/JobHunter/internal/db"
	"github.com/Kirill-Eltsov/JobHunter/internal/dialog"
	"github.com/Kirill-Eltsov/JobHunter/internal/geo"
	"github.com/Kirill-Eltsov/JobHunter/internal/hh"
	"github.com/Kirill-Eltsov/JobHunter/internal/metrics"
	"github.com/Kirill-Eltsov/JobHunter/internal/poller"
	"github.com/Kirill-Eltsov/JobHunter/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[jobhunter] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[jobhunter] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[jobhunter] PostgreSQL: %v", err)
	}
	defer pool.Close()

	if err := store.Init(ctx, pool); err != nil {
		log.Fatalf("[jobhunter] Schema: %v", err)
	}
	log.Println("[jobhunter] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[jobhunter] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[jobhunter] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[jobhunter] Redis connected ✓")

	// ── Wiring ───────────────────────────────────────────────────────────────
	m := metrics.New(prometheus.DefaultRegisterer)

	hhClient := hh.NewClient(cfg.HHBaseURL)
	areas := hh.NewAreaResolver(cfg.HHBaseURL, rdb)
	geocoder := geo.NewClient(cfg.NominatimURL)

	favorites := store.NewFavorites(pool)
	subs := store.NewSubscriptions(pool)
	history := store.NewHistory(pool)
	analytics := store.NewAnalytics(pool)

	machine := dialog.NewMachine(
		dialog.NewSessionStore(),
		areas, geocoder, hhClient, history, analytics,
		cfg.Positions, cfg.PositionsPage,
	)

	tg, err := bot.New(cfg.TelegramToken, machine, favorites, subs, history, analytics, hhClient, m)
	if err != nil {
		log.Fatalf("[jobhunter] Telegram: %v", err)
	}

	checker := poller.New(subs, hhClient, tg.Notifier(), m,
		time.Duration(cfg.PollIntervalSec)*time.Second)
	if err := checker.Start(ctx); err != nil {
		log.Fatalf("[jobhunter] Poller: %v", err)
	}
	defer checker.Stop()

	go tg.Run(ctx)

	// ── HTTP server (health + metrics) ───────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[jobhunter] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[jobhunter] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[jobhunter] Shutting down…")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[jobhunter] Shutdown error: %v", err)
	}
	log.Println("[jobhunter] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "jobhunter-bot",
		"version": version,
	})
}
