package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contesthub/config"
	"contesthub/database"
	"contesthub/logger"
	"contesthub/middleware"
	"contesthub/payments/factory"
	"contesthub/payments/stub"
	"contesthub/realtime"
	"contesthub/routes"
	"contesthub/services"

	"github.com/gin-gonic/gin"
)

// @title ContestHub API
// @version 1.0
// @description Contest publishing, paid registration, task submission and winner declaration.
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	db, err := database.Open(cfg.PostgresDSN(), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to the database")
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate the database")
	}
	if err := database.Populate(db, cfg.AdminEmail, log); err != nil {
		log.WithError(err).Fatal("Failed to seed the admin user")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := services.NopCache()
	if cfg.RedisAddr != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, listing cache disabled")
		} else {
			defer client.Close()
			cache = database.NewRedisCache(client, "contesthub:")
			log.WithField("addr", cfg.RedisAddr).Info("Listing cache enabled")
		}
	}

	provider, err := factory.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up the payment provider")
	}
	stubProvider, _ := provider.(*stub.Provider)
	log.WithField("provider", provider.Name()).Info("Payment provider ready")

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	svc := services.New(services.Deps{
		DB:       db,
		Cache:    cache,
		Notifier: hub,
		Payments: provider,
		Log:      log,
		Settings: services.SettingsFromConfig(cfg),
	})
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExp, nil)
	identity := services.NewIdentityVerifier(cfg.IdentitySecret, cfg.IdentityProofTTL, nil)
	if cfg.IdentitySecret == "" {
		log.Warn("IDENTITY_SECRET is not set, POST /jwt will refuse every request")
	}

	go svc.Reconciler.Run(ctx, cfg.ReconcileInterval)
	go middleware.UpdateSystemMetrics(ctx, 15*time.Second, log)

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Services: svc,
		Tokens:   tokens,
		Identity: identity,
		Hub:      hub,
		Stub:     stubProvider,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
