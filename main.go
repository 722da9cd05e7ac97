package main

import (
	"log"
	"net/http"
	"time"

	"pcpart-tracker/internal/analysis"
	"pcpart-tracker/internal/api"
	"pcpart-tracker/internal/catalog"
	"pcpart-tracker/internal/config"
	"pcpart-tracker/internal/database"
	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/services/ingest"
	"pcpart-tracker/internal/services/rakuten"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	if cfg.RakutenAppID != "" && len(cfg.RakutenAppID) >= 4 {
		log.Printf("Marketplace API configured (app id %s...)", cfg.RakutenAppID[:4])
	} else {
		log.Println("Marketplace API credentials not set; ingestion will be unavailable")
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// One gate per process: every outbound marketplace call shares it.
	gate := rakuten.NewIntervalGate(time.Duration(cfg.MarketplaceIntervalSec) * time.Second)
	market := rakuten.NewClient(rakuten.Config{
		AppID:       cfg.RakutenAppID,
		AffiliateID: cfg.RakutenAffiliateID,
		SiteURL:     cfg.SiteURL,
	}, gate)

	cat := catalog.NewGormCatalog(db)
	store := history.NewGormStore(db)
	ingester := ingest.NewService(cat, market, store)
	trends := analysis.NewTrendAnalyzer(store)
	advisor := analysis.NewAdvisor(store)
	aggregator := analysis.NewAggregator(store, cat, advisor)

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api/v1")
	api.SetupRoutes(apiGroup, cat, store, market, ingester, trends, advisor, aggregator)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
