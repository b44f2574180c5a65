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
	"github.com/rs/zerolog/log"

	"github.com/gamevault/loyalty-api/internal/config"
	"github.com/gamevault/loyalty-api/internal/domain/audit"
	"github.com/gamevault/loyalty-api/internal/domain/card"
	"github.com/gamevault/loyalty-api/internal/domain/member"
	"github.com/gamevault/loyalty-api/internal/domain/promocode"
	"github.com/gamevault/loyalty-api/internal/domain/session"
	"github.com/gamevault/loyalty-api/internal/domain/tier"
	"github.com/gamevault/loyalty-api/internal/middleware"
	"github.com/gamevault/loyalty-api/internal/pkg/database"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
	"github.com/gamevault/loyalty-api/internal/pkg/logger"
	"github.com/gamevault/loyalty-api/internal/pkg/response"
	"github.com/gamevault/loyalty-api/internal/pkg/token"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Loyalty API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	// The tier table is loaded once and validated up front. A misconfigured
	// table means every balance mutation would misclassify, so refuse to start.
	tierRepo := tier.NewRepository(db)
	tiers, err := tierRepo.List(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load tier configuration")
	}
	if len(tiers) == 0 {
		log.Warn().Msg("No tiers configured, using built-in defaults")
		tiers = tier.DefaultTiers()
	}
	tierTable, err := tier.NewTable(tiers)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid tier configuration")
	}

	// Per-card serialization: distributed lock when Redis is configured,
	// in-process keyed mutex otherwise.
	var locker lock.Locker
	if redis != nil {
		locker = lock.NewRedisLocker(redis, cfg.CardLockWait, cfg.CardLockTTL)
	} else {
		locker = lock.NewKeyedMutex(cfg.CardLockWait)
	}

	verifier := token.NewVerifier(cfg.TokenSecret)

	// ---------- Repositories ----------
	auditRepo := audit.NewRepository(db)
	auditor := audit.NewRecorder(auditRepo)

	memberRepo := member.NewRepository(db)
	cardRepo := card.NewRepository(db, tierTable)
	sessionRepo := session.NewRepository(db, cardRepo)
	promoRepo := promocode.NewRepository(db, cardRepo)

	// ---------- Services ----------
	memberService := member.NewService(memberRepo, auditor)
	cardService := card.NewService(cardRepo, tierTable, locker, auditor)

	sessionHub := session.NewHub()
	go sessionHub.Run()

	sessionService := session.NewService(sessionRepo, cardRepo, locker, auditor, sessionHub, cfg.PointsPerHour)
	promoService := promocode.NewService(promoRepo, cardRepo, locker, auditor)

	// ---------- Handlers ----------
	memberHandler := member.NewHandler(memberService)
	cardHandler := card.NewHandler(cardService)
	sessionHandler := session.NewHandler(sessionService, sessionHub, cfg.AllowedOrigins)
	promoHandler := promocode.NewHandler(promoService)
	tierHandler := tier.NewHandler(tierTable)
	auditHandler := audit.NewHandler(auditRepo)

	authMiddleware := middleware.Auth(verifier)
	adminOnly := middleware.RequireRole(token.RoleAdmin)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress)
	r.Get("/ws/sessions", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(sessionHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/members", memberHandler.Routes(authMiddleware, adminOnly))
		r.Mount("/cards", cardHandler.Routes(authMiddleware, adminOnly))
		r.Mount("/sessions", sessionHandler.Routes(authMiddleware))
		r.Mount("/promo-codes", promoHandler.Routes(authMiddleware, adminOnly))
		r.Mount("/promotions", promoHandler.PromotionRoutes(authMiddleware, adminOnly))
		r.Mount("/tiers", tierHandler.Routes(authMiddleware))
		r.Mount("/audit", auditHandler.Routes(authMiddleware, adminOnly))

		r.Route("/cards/{id}/sessions", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/active", sessionHandler.ListActiveForCard)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
