package analysis

import (
	"context"
	"fmt"
	"time"

	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
)

// DefaultWindowDays is the advisory lookback window.
const DefaultWindowDays = 30

// Policy holds the advisory thresholds and confidences. These are fixed
// policy values, not derived statistics.
type Policy struct {
	// DropThreshold and RiseThreshold are changePercent cutoffs.
	DropThreshold float64
	RiseThreshold float64

	ConfidenceSharpDrop    float64
	ConfidenceHighZone     float64
	ConfidenceBelowAverage float64
	ConfidenceNeutral      float64
}

// DefaultPolicy is the shipped rule table.
var DefaultPolicy = Policy{
	DropThreshold:          -5.0,
	RiseThreshold:          5.0,
	ConfidenceSharpDrop:    0.85,
	ConfidenceHighZone:     0.80,
	ConfidenceBelowAverage: 0.65,
	ConfidenceNeutral:      0.50,
}

const noDataMessage = "not enough price history to advise"

// Advisor turns a part's trend into a buy / wait / neutral verdict.
type Advisor struct {
	store  history.Store
	policy Policy
	now    func() time.Time
}

func NewAdvisor(store history.Store) *Advisor {
	return NewAdvisorWithPolicy(store, DefaultPolicy)
}

func NewAdvisorWithPolicy(store history.Store, policy Policy) *Advisor {
	return &Advisor{store: store, policy: policy, now: time.Now}
}

// Advise evaluates the rule table over the part's window. A part with no
// history gets a neutral verdict at zero confidence; that is the documented
// degradation, not an error.
func (a *Advisor) Advise(ctx context.Context, ref models.PartRef, windowDays int) (*models.AdvisoryVerdict, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	since := a.now().AddDate(0, 0, -windowDays)
	rows, err := a.store.Query(ctx, history.Filter{
		Category: ref.Category,
		PartID:   &ref.ID,
		Since:    &since,
	})
	if err != nil {
		return nil, err
	}
	return a.adviseRows(rows), nil
}

// adviseRows evaluates the rule table over an already-fetched ascending
// window. The aggregator reuses it to avoid querying twice per part.
func (a *Advisor) adviseRows(rows []models.PriceObservation) *models.AdvisoryVerdict {
	trend := summarize(rows)
	if trend == nil {
		return &models.AdvisoryVerdict{
			Verdict:    models.VerdictNeutral,
			Message:    noDataMessage,
			Confidence: 0.0,
			Trend:      nil,
		}
	}

	current := rows[len(rows)-1].Price
	verdict, confidence, message := classify(a.policy, trend.ChangePercent, current, trend.AvgPrice)
	return &models.AdvisoryVerdict{
		Verdict:    verdict,
		Message:    message,
		Confidence: confidence,
		Trend:      trend,
	}
}

// classify is the rule table, evaluated in fixed priority order. It is a
// pure function of (changePercent, currentPrice, avgPrice).
func classify(p Policy, changePercent float64, currentPrice, avgPrice int) (models.Verdict, float64, string) {
	switch {
	case changePercent <= p.DropThreshold:
		msg := fmt.Sprintf("price dropped %.1f%% over the window, good time to buy", -changePercent)
		return models.VerdictBuyNow, p.ConfidenceSharpDrop, msg
	case changePercent >= p.RiseThreshold:
		msg := fmt.Sprintf("price is up %.1f%%, currently in a high price zone", changePercent)
		return models.VerdictWait, p.ConfidenceHighZone, msg
	case currentPrice <= avgPrice:
		return models.VerdictBuyNow, p.ConfidenceBelowAverage, "current price is below the window average"
	default:
		return models.VerdictNeutral, p.ConfidenceNeutral, "price has been stable, no strong signal either way"
	}
}
