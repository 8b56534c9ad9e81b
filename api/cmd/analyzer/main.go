package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/analysis/agents"
	"page-analyzer/api/internal/attest"
	"page-analyzer/api/internal/config"
	"page-analyzer/api/internal/gateway"
	"page-analyzer/api/internal/handle"
	"page-analyzer/api/internal/store"
)

func main() {
	cfg := config.Load().MustServer()

	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	}

	retry := gateway.DefaultRetry()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	gw := gateway.New(cfg.GeminiAPIKey, cfg.GeminiModel, retry)

	svc := analysis.NewService(
		analysis.NewRouter(gw),
		agents.NewRegistry(gw),
		cfg.GeminiModel,
	)

	var repo *store.AnalysisRepo
	var db *sql.DB
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db.Ping: %v", err)
		}
		repo = store.NewAnalysisRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("db schema: %v", err)
		}
		log.Printf("result cache enabled (ttl %dh)", cfg.CacheTTLHours)
	}

	gate := attest.New(cfg.AttestURL, cfg.AttestSecret)
	h := handle.New(svc, gate, repo, cfg.GeminiModel, time.Duration(cfg.CacheTTLHours)*time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/analyze", h.Analyze)

	addr := ":" + cfg.Port
	log.Printf("page-analyzer listening on %s (model %s)", addr, cfg.GeminiModel)
	log.Fatal(http.ListenAndServe(addr, mux))
}
