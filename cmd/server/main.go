package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/mukofot/internal/cache"
	"github.com/example/mukofot/internal/config"
	"github.com/example/mukofot/internal/database"
	"github.com/example/mukofot/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	store := cache.New(cfg.RedisURL)

	for _, dir := range []string{cfg.UploadDir, cfg.TempUploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("creating %s: %v", dir, err)
		}
	}

	app := fiber.New(fiber.Config{
		AppName:   "Mukofot Backend",
		BodyLimit: 64 << 20,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, store, cfg)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
