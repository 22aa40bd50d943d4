// Package main provides the entry point for the beacon-deck server
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	openai "github.com/sashabaranov/go-openai"

	"github.com/beacondesk/beacon-deck/internal/api"
	"github.com/beacondesk/beacon-deck/internal/convert"
	"github.com/beacondesk/beacon-deck/internal/synthesize"
	"github.com/beacondesk/beacon-deck/pkg/logging"
	"github.com/beacondesk/beacon-deck/pkg/pipeline"
	"github.com/beacondesk/beacon-deck/pkg/vision"
)

func main() {
	cfg := loadConfig()

	if err := logging.SetupLogger(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	// An OpenAI client is optional; without one the service still works
	// using the heuristic segmenter
	var chat synthesize.ChatCompleter
	var describe vision.ChatCompleter
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		client := openai.NewClient(key)
		chat, describe = client, client
	}

	converter := convert.NewService(cfg, chat, describe)

	app := fiber.New(fiber.Config{
		AppName:               "Beacon Deck API",
		BodyLimit:             int(cfg.Upload.MaxUploadBytes) + 1024*1024,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: false,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "UTC",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: getEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	h := api.NewHandlers(converter, cfg)
	setupRoutes(app, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting Beacon Deck server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRoutes configures all API routes
func setupRoutes(app *fiber.App, h *api.Handlers) {
	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")

	decks := v1.Group("/decks")
	decks.Post("/", h.CreateDeck)
	decks.Post("/chunks", h.UploadChunk)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Beacon Deck",
			"version": "0.1.0",
		})
	})
}

// loadConfig selects a configuration profile and applies env overrides
func loadConfig() *pipeline.Config {
	var cfg *pipeline.Config
	switch getEnv("BEACON_ENV", "development") {
	case "production":
		cfg = pipeline.ProductionConfig()
	default:
		cfg = pipeline.DevelopmentConfig()
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if model := os.Getenv("BEACON_CHAT_MODEL"); model != "" {
		cfg.Synthesis.ChatModel = model
	}
	if model := os.Getenv("BEACON_VISION_MODEL"); model != "" {
		cfg.Synthesis.VisionModel = model
	}
	if raw := os.Getenv("BEACON_MAX_UPLOAD_BYTES"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.Upload.MaxUploadBytes = n
		}
	}

	return cfg
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
