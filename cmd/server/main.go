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

	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/checkout"
	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/database"
	"github.com/example/marketplace/internal/jobs"
	"github.com/example/marketplace/internal/lock"
	"github.com/example/marketplace/internal/logging"
	"github.com/example/marketplace/internal/middleware"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/routes"
	"github.com/example/marketplace/internal/services"
	"github.com/example/marketplace/internal/store"
)

const checkoutLockTTL = time.Minute

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}()
	st := store.New(db)

	var locker lock.Locker = lock.NewMemory()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisLock, err := lock.NewRedis(ctx, cfg.RedisURL, checkoutLockTTL, log)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("redis unavailable")
		}
		defer redisLock.Close()
		locker = redisLock
	}

	mailer := services.NewEmailService(cfg, log)
	gateway := services.NewFlutterwaveService(cfg, log)
	manager := auth.NewManager(st, mailer, cfg, log)
	orchestrator := checkout.NewOrchestrator(st, gateway, locker, mailer, log)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)

	sweeper := jobs.NewSweeper(st, limiter, cfg.CardPaymentTTL, cfg.RefreshTokenTTL, log)
	if err := sweeper.Start(jobs.DefaultSchedule); err != nil {
		log.WithError(err).Fatal("scheduling sweeper")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Marketplace Backend",
		ErrorHandler: response.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.Metrics())

	routes.Register(app, routes.Dependencies{
		Config:   cfg,
		Store:    st,
		Auth:     manager,
		Checkout: orchestrator,
		Limiter:  limiter,
		Log:      log,
	})

	go func() {
		log.Infof("Starting server on :%s", cfg.AppPort)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.WithError(err).Error("fiber.Listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	sweeper.Stop()
	orchestrator.Wait()
}
