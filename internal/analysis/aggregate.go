package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pcpart-tracker/internal/catalog"
	"pcpart-tracker/internal/errs"
	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
)

// maxPerCategory caps how many entries one category may take in the
// biggest-changes digest. Without it a single volatile category (GPUs,
// typically) crowds out everything else.
const maxPerCategory = 2

// endpointSampleSize is how many observations each end of the window
// contributes to the category-level change formula.
const endpointSampleSize = 5

// Aggregator computes category-level trends and cross-category digests.
type Aggregator struct {
	store   history.Store
	catalog catalog.Catalog
	advisor *Advisor
	now     func() time.Time
}

func NewAggregator(store history.Store, cat catalog.Catalog, advisor *Advisor) *Aggregator {
	return &Aggregator{store: store, catalog: cat, advisor: advisor, now: time.Now}
}

// CategoryTrend aggregates every part of a category over the window. The
// change formula here is intentionally not the per-part first-vs-last one:
// it compares the mean of the earliest few observations against the mean
// of the latest few, which damps single-observation noise at category
// scale. Returns (nil, nil) on an empty window.
func (g *Aggregator) CategoryTrend(ctx context.Context, category models.Category, windowDays int) (*models.CategoryTrend, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	since := g.now().AddDate(0, 0, -windowDays)
	rows, err := g.store.Query(ctx, history.Filter{Category: category, Since: &since})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cp := endpointAverageChange(rows)
	direction := models.TrendStable
	switch {
	case cp < 0:
		direction = models.TrendDown
	case cp > 0:
		direction = models.TrendUp
	}

	sum := 0
	parts := make(map[uint]struct{})
	for _, r := range rows {
		sum += r.Price
		parts[r.PartID] = struct{}{}
	}

	return &models.CategoryTrend{
		Category:      category,
		ChangePercent: cp,
		Direction:     direction,
		AvgPrice:      int(math.Round(float64(sum) / float64(len(rows)))),
		PartCount:     len(parts),
	}, nil
}

// endpointAverageChange is the category-level formula: mean of the
// earliest endpointSampleSize observations versus mean of the latest
// endpointSampleSize, one decimal, zero-guarded like the per-part formula.
func endpointAverageChange(rows []models.PriceObservation) float64 {
	n := endpointSampleSize
	if len(rows) < n {
		n = len(rows)
	}

	headSum, tailSum := 0, 0
	for _, r := range rows[:n] {
		headSum += r.Price
	}
	for _, r := range rows[len(rows)-n:] {
		tailSum += r.Price
	}

	head := float64(headSum) / float64(n)
	tail := float64(tailSum) / float64(n)
	if head <= 0 {
		return 0.0
	}
	return round1((tail - head) / head * 100)
}

// DailyAverages groups the category's in-window observations by calendar
// date. Observations are first restricted to the catalog's current part
// ids, which handles categories that are virtual subtypes of a broader
// table as well as orphaned soft references.
func (g *Aggregator) DailyAverages(ctx context.Context, category models.Category, windowDays int) ([]models.DailyAverage, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	ids, err := g.catalog.ListPartIDs(ctx, category)
	if err != nil {
		return nil, err
	}
	known := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	since := g.now().AddDate(0, 0, -windowDays)
	rows, err := g.store.Query(ctx, history.Filter{Category: category, Since: &since})
	if err != nil {
		return nil, err
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, r := range rows {
		if _, ok := known[r.PartID]; !ok {
			continue
		}
		date := r.FetchedAt.Format("2006-01-02")
		sums[date] += r.Price
		counts[date]++
	}

	out := make([]models.DailyAverage, 0, len(sums))
	for date, sum := range sums {
		out = append(out, models.DailyAverage{
			Date:     date,
			AvgPrice: int(math.Round(float64(sum) / float64(counts[date]))),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// BestDeals runs the advisor over every catalogued part and keeps the
// buy_now verdicts, biggest drop first.
func (g *Aggregator) BestDeals(ctx context.Context, limit int) ([]models.Deal, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", errs.ErrValidation)
	}

	var deals []models.Deal
	for _, category := range models.AllCategories {
		ids, err := g.catalog.ListPartIDs(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			ref := models.PartRef{Category: category, ID: id}
			rows, err := g.partWindow(ctx, ref, DefaultWindowDays)
			if err != nil {
				return nil, err
			}
			verdict := g.advisor.adviseRows(rows)
			if verdict.Verdict != models.VerdictBuyNow || verdict.Trend == nil {
				continue
			}

			current := rows[len(rows)-1].Price
			deal := models.Deal{
				Part:          ref,
				Verdict:       verdict.Verdict,
				Confidence:    verdict.Confidence,
				ChangePercent: verdict.Trend.ChangePercent,
				CurrentPrice:  current,
			}
			if ref7 := nearestTo(rows, g.now().AddDate(0, 0, -7)); ref7 != nil {
				delta := current - ref7.Price
				deal.WeekDelta = &delta
			}
			deals = append(deals, deal)
		}
	}

	// Most negative change first: the biggest drop wins.
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].ChangePercent < deals[j].ChangePercent
	})
	if len(deals) > limit {
		deals = deals[:limit]
	}
	g.fillDealNames(ctx, deals)
	return deals, nil
}

// BiggestChanges ranks parts by raw windowed change, then admits them in
// order under the per-category diversity cap. Admitted entries keep their
// global rank order.
func (g *Aggregator) BiggestChanges(ctx context.Context, direction models.TrendDirection, limit int) ([]models.Mover, error) {
	if direction != models.TrendUp && direction != models.TrendDown {
		return nil, fmt.Errorf("%w: direction must be up or down", errs.ErrValidation)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", errs.ErrValidation)
	}

	var movers []models.Mover
	for _, category := range models.AllCategories {
		ids, err := g.catalog.ListPartIDs(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			ref := models.PartRef{Category: category, ID: id}
			rows, err := g.partWindow(ctx, ref, DefaultWindowDays)
			if err != nil {
				return nil, err
			}
			if len(rows) < 2 {
				continue
			}
			movers = append(movers, models.Mover{
				Part:          ref,
				ChangePercent: changePercent(rows[0].Price, rows[len(rows)-1].Price),
				CurrentPrice:  rows[len(rows)-1].Price,
			})
		}
	}

	sort.SliceStable(movers, func(i, j int) bool {
		if direction == models.TrendDown {
			return movers[i].ChangePercent < movers[j].ChangePercent
		}
		return movers[i].ChangePercent > movers[j].ChangePercent
	})

	// Diversity pass: scan in rank order, cap entries per category.
	perCategory := make(map[models.Category]int)
	admitted := make([]models.Mover, 0, limit)
	for _, m := range movers {
		if perCategory[m.Part.Category] >= maxPerCategory {
			continue
		}
		perCategory[m.Part.Category]++
		admitted = append(admitted, m)
		if len(admitted) == limit {
			break
		}
	}
	g.fillMoverNames(ctx, admitted)
	return admitted, nil
}

func (g *Aggregator) partWindow(ctx context.Context, ref models.PartRef, windowDays int) ([]models.PriceObservation, error) {
	since := g.now().AddDate(0, 0, -windowDays)
	return g.store.Query(ctx, history.Filter{
		Category: ref.Category,
		PartID:   &ref.ID,
		Since:    &since,
	})
}

// nearestTo picks the observation closest in time to target.
func nearestTo(rows []models.PriceObservation, target time.Time) *models.PriceObservation {
	if len(rows) == 0 {
		return nil
	}
	best := &rows[0]
	bestGap := absDuration(rows[0].FetchedAt.Sub(target))
	for i := 1; i < len(rows); i++ {
		if gap := absDuration(rows[i].FetchedAt.Sub(target)); gap < bestGap {
			best = &rows[i]
			bestGap = gap
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Names are resolved only for the entries that survive ranking; a lookup
// failure leaves the name blank rather than failing the digest.
func (g *Aggregator) fillDealNames(ctx context.Context, deals []models.Deal) {
	for i := range deals {
		if part, err := g.catalog.GetPart(ctx, deals[i].Part); err == nil {
			deals[i].PartName = part.Name
		}
	}
}

func (g *Aggregator) fillMoverNames(ctx context.Context, movers []models.Mover) {
	for i := range movers {
		if part, err := g.catalog.GetPart(ctx, movers[i].Part); err == nil {
			movers[i].PartName = part.Name
		}
	}
}
