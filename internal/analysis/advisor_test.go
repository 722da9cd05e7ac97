package analysis

import (
	"context"
	"testing"
	"time"

	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
)

func newTestAdvisor(store *history.MemoryStore) *Advisor {
	a := NewAdvisor(store)
	a.now = func() time.Time { return testNow }
	return a
}

func TestAdvise_SharpDropMeansBuyNow(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryCPU, ID: 1}
	seed(t, store, ref, [][2]int{{60000, 25}, {55000, 10}, {52000, 1}})

	v, err := newTestAdvisor(store).Advise(context.Background(), ref, 30)
	if err != nil {
		t.Fatalf("Advise() = %v", err)
	}
	if v.Verdict != models.VerdictBuyNow {
		t.Errorf("Verdict = %q, want buy_now", v.Verdict)
	}
	if v.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", v.Confidence)
	}
	if v.Trend == nil || v.Trend.ChangePercent != -13.3 {
		t.Errorf("Trend = %+v, want changePercent -13.3", v.Trend)
	}
}

func TestAdvise_SharpRiseMeansWait(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryCPU, ID: 1}
	seed(t, store, ref, [][2]int{{48000, 25}, {52000, 10}, {55000, 1}})

	v, err := newTestAdvisor(store).Advise(context.Background(), ref, 30)
	if err != nil {
		t.Fatalf("Advise() = %v", err)
	}
	if v.Verdict != models.VerdictWait {
		t.Errorf("Verdict = %q, want wait", v.Verdict)
	}
	if v.Confidence != 0.80 {
		t.Errorf("Confidence = %v, want 0.80", v.Confidence)
	}
}

func TestAdvise_BelowAverageMeansBuyNow(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryCPU, ID: 1}
	// change is only -1.9%, but 52000 <= avg 53000: rule 3 fires, not 1 or 2.
	seed(t, store, ref, [][2]int{{53000, 25}, {54000, 10}, {52000, 1}})

	v, err := newTestAdvisor(store).Advise(context.Background(), ref, 30)
	if err != nil {
		t.Fatalf("Advise() = %v", err)
	}
	if v.Trend.AvgPrice != 53000 {
		t.Fatalf("AvgPrice = %d, want 53000", v.Trend.AvgPrice)
	}
	if v.Verdict != models.VerdictBuyNow {
		t.Errorf("Verdict = %q, want buy_now via below-average rule", v.Verdict)
	}
	if v.Confidence != 0.65 {
		t.Errorf("Confidence = %v, want 0.65 (rule 3, not the sharp-drop rule)", v.Confidence)
	}
}

func TestAdvise_NoHistoryIsNeutral(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryGPU, ID: 42}

	v, err := newTestAdvisor(store).Advise(context.Background(), ref, 30)
	if err != nil {
		t.Fatalf("Advise() = %v, missing data must not be an error", err)
	}
	if v.Verdict != models.VerdictNeutral {
		t.Errorf("Verdict = %q, want neutral", v.Verdict)
	}
	if v.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0", v.Confidence)
	}
	if v.Trend != nil {
		t.Errorf("Trend = %+v, want nil", v.Trend)
	}
	if v.Message != noDataMessage {
		t.Errorf("Message = %q, want the fixed no-data text", v.Message)
	}
}

func TestAdvise_AboveAverageStableIsNeutral(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryCase, ID: 6}
	// +2.0% change, current 10200 > avg 10100: no rule fires.
	seed(t, store, ref, [][2]int{{10000, 20}, {10100, 10}, {10200, 1}})

	v, err := newTestAdvisor(store).Advise(context.Background(), ref, 30)
	if err != nil {
		t.Fatalf("Advise() = %v", err)
	}
	if v.Verdict != models.VerdictNeutral || v.Confidence != 0.50 {
		t.Errorf("verdict = %q/%v, want neutral/0.50", v.Verdict, v.Confidence)
	}
}

func TestAdvise_DefaultWindowApplied(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryOS, ID: 8}
	seed(t, store, ref, [][2]int{{20000, 29}, {18000, 1}})

	// windowDays <= 0 falls back to the 30-day default, which still sees
	// the 29-day-old row.
	v, err := newTestAdvisor(store).Advise(context.Background(), ref, 0)
	if err != nil {
		t.Fatalf("Advise() = %v", err)
	}
	if v.Trend == nil || v.Trend.ChangePercent != -10.0 {
		t.Errorf("Trend = %+v, want -10.0 over the default window", v.Trend)
	}
	if v.Verdict != models.VerdictBuyNow {
		t.Errorf("Verdict = %q, want buy_now", v.Verdict)
	}
}

func TestClassify_ThresholdBoundaries(t *testing.T) {
	p := DefaultPolicy

	if v, conf, _ := classify(p, -5.0, 1000, 900); v != models.VerdictBuyNow || conf != 0.85 {
		t.Errorf("classify(-5.0) = %q/%v, want buy_now/0.85 (threshold inclusive)", v, conf)
	}
	if v, conf, _ := classify(p, 5.0, 900, 1000); v != models.VerdictWait || conf != 0.80 {
		t.Errorf("classify(+5.0) = %q/%v, want wait/0.80 (threshold inclusive)", v, conf)
	}
	if v, _, _ := classify(p, -4.9, 1100, 1000); v == models.VerdictBuyNow {
		t.Error("classify(-4.9, current above avg) must not trigger the drop rule")
	}
	if v, conf, _ := classify(p, 0.0, 1000, 1000); v != models.VerdictBuyNow || conf != 0.65 {
		t.Errorf("classify(current == avg) = %q/%v, want buy_now/0.65", v, conf)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	p := DefaultPolicy
	v1, c1, m1 := classify(p, -6.2, 47000, 50000)
	v2, c2, m2 := classify(p, -6.2, 47000, 50000)
	if v1 != v2 || c1 != c2 || m1 != m2 {
		t.Errorf("classify is not pure: (%q,%v,%q) vs (%q,%v,%q)", v1, c1, m1, v2, c2, m2)
	}
}

func TestAdvise_CustomPolicy(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryMotherboard, ID: 5}
	seed(t, store, ref, [][2]int{{30000, 20}, {29100, 1}}) // -3.0%

	policy := DefaultPolicy
	policy.DropThreshold = -2.0
	a := NewAdvisorWithPolicy(store, policy)
	a.now = func() time.Time { return testNow }

	v, err := a.Advise(context.Background(), ref, 30)
	if err != nil {
		t.Fatalf("Advise() = %v", err)
	}
	if v.Verdict != models.VerdictBuyNow || v.Confidence != 0.85 {
		t.Errorf("verdict = %q/%v, want the relaxed threshold to fire", v.Verdict, v.Confidence)
	}
}
