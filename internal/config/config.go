package config

import (
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string

	// Marketplace API credentials. Both are required for ingestion; the
	// client reports the missing one per call instead of failing boot,
	// so a read-only deployment can run without them.
	RakutenAppID       string
	RakutenAffiliateID string

	// SiteURL is the allow-listed site identity sent as Referer/Origin
	// on every marketplace call.
	SiteURL string

	// MarketplaceIntervalSec is the minimum spacing between outbound
	// marketplace requests, process-wide.
	MarketplaceIntervalSec int
}

func Load() *Config {
	defaultDSN := "root:parts@tcp(127.0.0.1:3306)/pcpart_tracker?charset=utf8mb4&parseTime=True&loc=Local"

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", defaultDSN),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		RakutenAppID:       getEnv("RAKUTEN_APP_ID", ""),
		RakutenAffiliateID: getEnv("RAKUTEN_AFFILIATE_ID", ""),
		SiteURL:            getEnv("SITE_URL", "https://pcpart-tracker.example.com"),

		MarketplaceIntervalSec: getEnvInt("MARKETPLACE_INTERVAL_SEC", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
