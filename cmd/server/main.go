package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/sonam-git/hscsonoma-backend/internal/config"
	"github.com/sonam-git/hscsonoma-backend/internal/content"
	"github.com/sonam-git/hscsonoma-backend/internal/forms"
	"github.com/sonam-git/hscsonoma-backend/internal/gallery"
	"github.com/sonam-git/hscsonoma-backend/internal/health"
	"github.com/sonam-git/hscsonoma-backend/internal/logger"
	"github.com/sonam-git/hscsonoma-backend/internal/mailer"
	"github.com/sonam-git/hscsonoma-backend/internal/metrics"
	"github.com/sonam-git/hscsonoma-backend/internal/middleware"
	"github.com/sonam-git/hscsonoma-backend/internal/security"
)

var version = "dev"

func main() {
	cfg := config.Load()
	log := logger.New(logger.DefaultConfig())

	// Missing SMTP credentials are deliberately not fatal: the server
	// still serves content and health, and the form endpoints respond
	// with a server error until mail is configured.
	if !cfg.Mail.Configured() {
		log.Warn("SMTP credentials missing; form submissions will be refused")
	}

	var redisClient *redis.Client
	var limiter security.Limiter
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = security.NewRedisLimiter(redisClient, cfg.Security.RateLimit, cfg.Security.RateWindow, log)
		log.Info("using redis rate limiter", "addr", cfg.Redis.Addr)
	} else {
		limiter = security.NewMemoryLimiter(cfg.Security.RateLimit, cfg.Security.RateWindow)
		log.Info("using in-memory rate limiter")
	}

	tokens := security.NewTokenIssuer(cfg.Security.TokenSecret, cfg.Security.TokenTTL)
	if !tokens.Enabled() {
		log.Warn("form token secret not set; falling back to client timestamps")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	checker := security.NewChecker(security.CheckerConfig{
		MinFillTime:  cfg.Security.MinFillTime,
		Limiter:      limiter,
		Tokens:       tokens,
		MaxURLs:      cfg.Security.MaxURLs,
		SpamKeywords: cfg.Security.SpamKeywords,
		Logger:       log,
	})

	transport := mailer.NewSMTPTransport(cfg.Mail, log)

	formsService := forms.NewService(forms.ServiceConfig{
		Checker:   checker,
		Transport: transport,
		Mail:      cfg.Mail,
		Metrics:   m,
		Logger:    log,
	})
	formsHandler := forms.NewHandler(formsService, tokens, log)

	contentStore, err := content.NewStore()
	if err != nil {
		log.Error("loading embedded content", "error", err)
		os.Exit(1)
	}
	contentHandler := content.NewHandler(contentStore)

	healthHandler := health.NewHandler(health.Config{
		MailConfigured: cfg.Mail.Configured(),
		RedisClient:    redisClient,
		Version:        version,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(m.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	r.Route("/api/v1", func(r chi.Router) {
		forms.RegisterRoutes(r, formsHandler)
		content.RegisterRoutes(r, contentHandler)

		if cfg.Gallery.Enabled() {
			gallery.RegisterRoutes(r, gallery.NewHandler(gallery.NewStore(cfg.Gallery), log))
		}
	})
	if !cfg.Gallery.Enabled() {
		log.Warn("gallery storage not configured; gallery endpoints disabled")
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	log.Info("server exited")
}
