package main

import (
	"context"
	"log"
	"os"

	"anchor/server/internal/database"
	"anchor/server/internal/handlers"
	"anchor/server/internal/routes"
	websock "anchor/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Connect to database
	pool, err := database.Connect(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Feed hub, with membership checks backed by the pool
	hub := websock.NewHub(handlers.MembershipChecker(pool))
	go hub.Run()

	h := handlers.New(pool, hub)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Anchor API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     getEnv("CORS_ORIGIN", "http://localhost:3000"),
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(app, h)

	port := getEnv("PORT", "8080")

	log.Printf("🚀 Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
