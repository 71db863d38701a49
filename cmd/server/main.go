package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/dataforaction-tom/local-needs-databank-tw-sub000/docs"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/database"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/events"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/handlers"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/session"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/store"
)

// getEnv reads an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// @title Local Needs Databank Contribute API
// @version 1.0
// @description CSV ingestion and validation API for the contribute flow.
// @BasePath /api/v1
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	port := getEnv("CONTRIBUTE_SERVICE_PORT", "8083")
	natsURL := os.Getenv("NATS_URL")
	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "2h"))
	if err != nil {
		log.Fatalf("Invalid SESSION_TTL: %v", err)
	}

	log.Printf("Configuration:")
	log.Printf("  Port: %s", port)
	log.Printf("  Session TTL: %s", sessionTTL)
	log.Printf("  NATS URL: %s", natsURL)

	database.ConnectDatabase()
	dataStore := store.NewGormStore(database.GetDB())

	var publisher events.Publisher = events.NoopPublisher{}
	if natsURL != "" {
		natsPublisher, err := events.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("Failed to initialize NATS publisher: %v", err)
		}
		publisher = natsPublisher
	}

	sessions := session.NewStore()

	// Stale-session janitor: abandoned uploads hold the whole parsed table in
	// memory, so purge anything idle past the TTL.
	janitor := cron.New()
	if _, err := janitor.AddFunc("@every 10m", func() {
		sessions.PurgeStale(sessionTTL)
	}); err != nil {
		log.Fatalf("Failed to schedule session janitor: %v", err)
	}
	janitor.Start()

	router := gin.Default()
	api := handlers.NewHandlers(sessions, dataStore, publisher)
	api.RegisterRoutes(router)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	listenAddr := fmt.Sprintf(":%s", port)
	log.Printf("Starting Contribute Service on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatalf("Failed to start Contribute Service: %v", err)
	}
}
