package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"alternamed-portal/internal/config"
	"alternamed-portal/internal/consultation"
	"alternamed-portal/internal/logging"
	"alternamed-portal/internal/platform/webhook"
	"alternamed-portal/internal/tokens"
)

func main() {
	// 1. Infrastructure
	cfg := config.Load()
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatalf("Could not set up logging: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var db *sql.DB
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		logger.Info("waiting for database", "attempt", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	m, err := migrate.New("file://migrations", cfg.DatabaseURL)
	if err != nil {
		logger.Error("migration init failed", "error", err)
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("migration up failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// 2. Clients
	remote := webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout)

	var cache *tokens.Cache
	if cfg.ValkeyAddr != "" {
		cache, err = tokens.NewCache(cfg.ValkeyAddr, cfg.TokenCacheTTL, logger)
		if err != nil {
			logger.Warn("token cache disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			logger.Info("token cache connected", "addr", cfg.ValkeyAddr)
		}
	}

	// 3. Services
	tokenSvc := tokens.NewService(tokens.NewRepository(db), cache, logger)
	consultationRepo := consultation.NewRepository(db)
	consultationSvc := consultation.NewService(consultationRepo, tokenSvc, remote, logger)
	consultationHandler := consultation.NewHandler(consultationSvc, tokenSvc)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, consultationHandler)
	})

	logger.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
