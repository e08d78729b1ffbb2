package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pl974/dealchain/internal/config"
	"github.com/pl974/dealchain/internal/handler"
	"github.com/pl974/dealchain/internal/metrics"
	"github.com/pl974/dealchain/internal/middleware"
	"github.com/pl974/dealchain/internal/repository"
	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/internal/validator"
	"github.com/pl974/dealchain/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), cfg.DB.ConnectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database schema")
	}

	app := fiber.New(fiber.Config{
		AppName:      "dealchain",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		UnescapePath: true, // principals in /api/loyalty/:user may be percent-encoded
	})

	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	validate := validator.New()
	clock := service.SystemClock{}

	// Repositories
	merchantRepo := repository.NewMerchantRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository()
	reviewRepo := repository.NewReviewRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)
	assetRepo := repository.NewAssetRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	// Services
	merchantService := service.NewMerchantService(pool, merchantRepo, eventRepo, clock)
	couponService := service.NewCouponService(pool, couponRepo, merchantRepo, reviewRepo, eventRepo, clock,
		cfg.Ledger.SettlementAsset)
	purchaseService := service.NewPurchaseService(pool, couponRepo, merchantRepo, assetRepo, eventRepo, clock,
		cfg.Ledger.SettlementAsset)
	redemptionService := service.NewRedemptionService(pool, couponRepo, merchantRepo, redemptionRepo, assetRepo,
		eventRepo, clock)
	reviewService := service.NewReviewService(pool, couponRepo, merchantRepo, redemptionRepo, reviewRepo, assetRepo,
		eventRepo, clock)
	loyaltyService := service.NewLoyaltyService(pool, loyaltyRepo, eventRepo, clock)

	_ = metrics.Ledger() // register collectors before the first scrape

	handler.Routes{
		Health:       handler.NewHealthHandler(pool),
		Merchant:     handler.NewMerchantHandler(merchantService, validate),
		Coupon:       handler.NewCouponHandler(couponService, validate),
		Deal:         handler.NewDealHandler(purchaseService, redemptionService, reviewService, validate),
		Loyalty:      handler.NewLoyaltyHandler(loyaltyService, validate),
		Authenticate: middleware.Authenticate(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	}.Register(app)

	// Start server with graceful shutdown
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("settlement_asset", cfg.Ledger.SettlementAsset).
			Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
