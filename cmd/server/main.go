// Package main is the entry point for the wallet server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"log"
	"time"

	"moongamble/internal/config"
	"moongamble/internal/repositories"
	"moongamble/internal/repositories/cache"
	"moongamble/internal/routes"
	"moongamble/internal/services/idempotency"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	// Ledger storage: postgres when configured, in-memory otherwise
	var repo repositories.LedgerRepository
	if config.GetEnv("DB_HOST", "") != "" {
		if err := repositories.InitDB(); err != nil {
			log.Fatalf("failed to initialize database: %v", err)
		}
		repo = repositories.NewLedgerRepository(repositories.DB)
	} else {
		log.Println("DB_HOST not set, using in-memory ledger")
		repo = repositories.NewMemoryLedgerRepository()
	}

	// Idempotency store: redis when configured, in-memory otherwise
	var store idempotency.Store
	if config.GetEnv("REDIS_HOST", "") != "" {
		client, err := cache.NewRedisClient(&cache.RedisConfig{
			Host:     config.GetEnv("REDIS_HOST", "localhost"),
			Port:     config.GetEnv("REDIS_PORT", "6379"),
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetIntEnv("REDIS_DB", 0),
		})
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer client.Close()
		store = idempotency.NewRedisStore(client, config.GetDurationEnv("SESSION_TTL", 24*time.Hour))
	} else {
		log.Println("REDIS_HOST not set, using in-memory idempotency store")
		store = idempotency.NewMemoryStore()
	}

	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Printf("failed to close database connection: %v", err)
				}
			}
		}
	}()

	// Create Fiber app
	app := fiber.New()

	app.Use(recover.New())

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// The provider retries on 429, so rate limiting the callback endpoint
	// is safe: throttled requests are retried, not lost.
	app.Use("/api/providers/callback", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("CALLBACK_RATE_LIMIT", 300),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	// Routes
	routes.SetupRoutes(app, repo, store)

	// Start server
	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
