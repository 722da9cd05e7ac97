// price-monitor periodically bulk-ingests marketplace prices for every
// catalogued part. With -once it runs a single sweep and exits.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pcpart-tracker/internal/catalog"
	"pcpart-tracker/internal/config"
	"pcpart-tracker/internal/database"
	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
	"pcpart-tracker/internal/services/ingest"
	"pcpart-tracker/internal/services/rakuten"

	"github.com/joho/godotenv"
)

var (
	interval   = flag.Int("interval", 3600, "seconds between sweeps")
	once       = flag.Bool("once", false, "run a single sweep and exit")
	categories = flag.String("categories", "", "comma-separated category filter (default: all)")
	logFile    = flag.String("log", "", "log file path (default: stderr)")
)

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	gate := rakuten.NewIntervalGate(time.Duration(cfg.MarketplaceIntervalSec) * time.Second)
	market := rakuten.NewClient(rakuten.Config{
		AppID:       cfg.RakutenAppID,
		AffiliateID: cfg.RakutenAffiliateID,
		SiteURL:     cfg.SiteURL,
	}, gate)
	ingester := ingest.NewService(catalog.NewGormCatalog(db), market, history.NewGormStore(db))

	targets := parseCategories(*categories)
	log.Printf("price-monitor started (interval %ds, categories: %v)", *interval, targets)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		sweep(ctx, ingester, targets)
		if *once {
			return
		}
		select {
		case <-ctx.Done():
			log.Println("price-monitor stopping")
			return
		case <-time.After(time.Duration(*interval) * time.Second):
		}
	}
}

func sweep(ctx context.Context, ingester *ingest.Service, targets []models.Category) {
	start := time.Now()
	total, ok := 0, 0
	for _, category := range targets {
		outcomes, err := ingester.IngestAll(ctx, category)
		if err != nil {
			log.Printf("sweep %s aborted: %v", category, err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		succeeded := ingest.SuccessCount(outcomes)
		log.Printf("sweep %s: %d/%d parts ingested", category, succeeded, len(outcomes))
		for _, o := range outcomes {
			if !o.OK() {
				log.Printf("  part %d: %s", o.Part.ID, o.Err)
			}
		}
		total += len(outcomes)
		ok += succeeded
	}
	log.Printf("sweep done: %d/%d parts in %s", ok, total, time.Since(start).Round(time.Second))
}

func parseCategories(s string) []models.Category {
	if s == "" {
		return models.AllCategories
	}
	var out []models.Category
	for _, raw := range strings.Split(s, ",") {
		category, ok := models.ParseCategory(strings.TrimSpace(raw))
		if !ok {
			log.Fatalf("unknown category %q", raw)
		}
		out = append(out, category)
	}
	return out
}
