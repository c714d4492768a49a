package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/safety-tracker/backend/internal/api/handlers"
	rediscache "github.com/safety-tracker/backend/internal/cache/redis"
	"github.com/safety-tracker/backend/internal/dashboard"
	"github.com/safety-tracker/backend/internal/dataset"
	"github.com/safety-tracker/backend/internal/metrics"
	"github.com/safety-tracker/backend/internal/middleware/ratelimit"
	"github.com/safety-tracker/backend/internal/middleware/security"
	"github.com/safety-tracker/backend/internal/middleware/validation"
	"github.com/safety-tracker/backend/pkg/config"
	appLogger "github.com/safety-tracker/backend/pkg/logger"
	"github.com/safety-tracker/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Safety Tracker API Server")

	metrics.Init()

	store, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		appLogger.Fatal("Failed to load dataset", zap.Error(err), zap.String("path", cfg.Dataset.Path))
	}
	metrics.DatasetRecords.Set(float64(store.Base().Len()))

	var viewCache dashboard.ViewCache
	if cfg.Redis.Enabled {
		var redisClient *rediscache.Client
		err = retry.Do(context.Background(), retry.DefaultConfig(), func() error {
			var err error
			redisClient, err = rediscache.NewClient(
				cfg.Redis.Host,
				cfg.Redis.Port,
				cfg.Redis.Password,
				cfg.Redis.DB,
				time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			)
			return err
		})
		if err != nil {
			appLogger.Warn("View cache unavailable, running without memoization", zap.Error(err))
		} else {
			viewCache = redisClient
			defer redisClient.Close()
		}
	}

	coordinator := dashboard.New(store, viewCache)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware())

	chartsHandler := handlers.NewChartsHandler(coordinator)
	metaHandler := handlers.NewMetaHandler(store)
	wsHandler := handlers.NewWebSocketHandler(coordinator)

	api := app.Group("/api/v1")

	chartsGroup := api.Group("/charts")
	chartsGroup.Get("/radar", chartsHandler.GetRadar)
	chartsGroup.Get("/map", chartsHandler.GetMap)
	chartsGroup.Get("/splom", chartsHandler.GetSplom)
	chartsGroup.Get("/scatter", chartsHandler.GetScatter)
	chartsGroup.Get("/treemap", chartsHandler.GetTreemap)
	chartsGroup.Get("/bar", chartsHandler.GetBar)

	api.Get("/tabs/:tab", chartsHandler.GetTab)

	meta := api.Group("/meta")
	meta.Get("/incident-types", metaHandler.GetIncidentTypes)
	meta.Get("/states", metaHandler.GetStates)
	meta.Get("/metrics", metaHandler.GetMetrics)
	meta.Get("/date-bounds", metaHandler.GetDateBounds)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/dashboard", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.Handler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ready",
			"records": store.Base().Len(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
