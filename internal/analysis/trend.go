// Package analysis computes windowed statistics, buy advisories and
// ranked digests over the price ledger. Everything here is read-only.
package analysis

import (
	"context"
	"math"
	"time"

	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
)

// TrendAnalyzer summarizes one part's recent price movement.
type TrendAnalyzer struct {
	store history.Store
	now   func() time.Time
}

func NewTrendAnalyzer(store history.Store) *TrendAnalyzer {
	return &TrendAnalyzer{store: store, now: time.Now}
}

// ComputeTrend summarizes the part's observations in the last windowDays.
// An empty window returns (nil, nil): missing history is a valid state,
// not an error.
func (a *TrendAnalyzer) ComputeTrend(ctx context.Context, ref models.PartRef, windowDays int) (*models.TrendSummary, error) {
	rows, err := a.window(ctx, ref, windowDays)
	if err != nil {
		return nil, err
	}
	return summarize(rows), nil
}

func (a *TrendAnalyzer) window(ctx context.Context, ref models.PartRef, windowDays int) ([]models.PriceObservation, error) {
	since := a.now().AddDate(0, 0, -windowDays)
	return a.store.Query(ctx, history.Filter{
		Category: ref.Category,
		PartID:   &ref.ID,
		Since:    &since,
	})
}

// summarize folds an ascending observation window into a TrendSummary.
// Direction compares only the window endpoints; this is deliberately not a
// regression over the whole series.
func summarize(rows []models.PriceObservation) *models.TrendSummary {
	if len(rows) == 0 {
		return nil
	}

	first := rows[0].Price
	last := rows[len(rows)-1].Price

	direction := models.TrendStable
	switch {
	case last < first:
		direction = models.TrendDown
	case last > first:
		direction = models.TrendUp
	}

	minPrice, maxPrice, sum := rows[0].Price, rows[0].Price, 0
	for _, r := range rows {
		if r.Price < minPrice {
			minPrice = r.Price
		}
		if r.Price > maxPrice {
			maxPrice = r.Price
		}
		sum += r.Price
	}

	return &models.TrendSummary{
		Direction:     direction,
		ChangePercent: changePercent(first, last),
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		AvgPrice:      int(math.Round(float64(sum) / float64(len(rows)))),
	}
}

// changePercent is the per-part formula: first versus last observation,
// one decimal. A zero or missing reference price yields exactly 0.0, never
// NaN or Inf.
func changePercent(first, last int) float64 {
	if first <= 0 {
		return 0.0
	}
	return round1(float64(last-first) / float64(first) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
