package database

import (
	"fmt"
	"log"
	"time"

	"pcpart-tracker/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// The ledger table is the only schema this subsystem owns; the eight
	// catalog tables are migrated by the catalog application.
	if err := db.AutoMigrate(&models.PriceObservation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate price_observations: %w", err)
	}

	log.Println("Database initialized successfully")
	return db, nil
}
