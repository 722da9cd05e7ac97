// export-report writes the price ledger and per-category daily averages to
// an Excel workbook, one sheet per category.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"pcpart-tracker/internal/analysis"
	"pcpart-tracker/internal/catalog"
	"pcpart-tracker/internal/config"
	"pcpart-tracker/internal/database"
	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
)

var (
	output = flag.String("o", "price-report.xlsx", "output workbook path")
	window = flag.Int("window", 30, "lookback window in days")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	store := history.NewGormStore(db)
	cat := catalog.NewGormCatalog(db)
	aggregator := analysis.NewAggregator(store, cat, analysis.NewAdvisor(store))

	f := excelize.NewFile()
	defer f.Close()

	ctx := context.Background()
	for i, category := range models.AllCategories {
		sheet := string(category)
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				log.Fatalf("create sheet %s: %v", sheet, err)
			}
		}
		if err := writeCategory(ctx, f, sheet, category, store, aggregator, *window); err != nil {
			log.Fatalf("export %s: %v", category, err)
		}
	}

	if err := f.SaveAs(*output); err != nil {
		log.Fatalf("save workbook: %v", err)
	}
	log.Printf("report written to %s", *output)
}

func writeCategory(ctx context.Context, f *excelize.File, sheet string, category models.Category,
	store history.Store, aggregator *analysis.Aggregator, windowDays int) error {

	daily, err := aggregator.DailyAverages(ctx, category, windowDays)
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Date")
	f.SetCellValue(sheet, "B1", "Avg Price")
	for i, d := range daily {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), d.Date)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), d.AvgPrice)
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	rows, err := store.Query(ctx, history.Filter{Category: category, Since: &since})
	if err != nil {
		return err
	}

	headers := []string{"Part ID", "Price", "Source", "Product Name", "Fetched At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(4+i, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, obs := range rows {
		values := []interface{}{
			obs.PartID, obs.Price, string(obs.Source),
			obs.ObservedProductName, obs.FetchedAt.Format(time.RFC3339),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(4+j, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return nil
}
