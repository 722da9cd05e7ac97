package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"pcpart-tracker/internal/analysis"
	"pcpart-tracker/internal/errs"
	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
	"pcpart-tracker/internal/services/ingest"
	"pcpart-tracker/internal/services/rakuten"

	"github.com/gin-gonic/gin"
)

type fakeCatalog struct {
	parts map[models.PartRef]*models.Part
}

func (c *fakeCatalog) GetPart(ctx context.Context, ref models.PartRef) (*models.Part, error) {
	if p, ok := c.parts[ref]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s part %d", errs.ErrNotFound, ref.Category, ref.ID)
}

func (c *fakeCatalog) UpdateExternalLink(ctx context.Context, ref models.PartRef, link models.ExternalLink) error {
	return nil
}

func (c *fakeCatalog) ListPartIDs(ctx context.Context, category models.Category) ([]uint, error) {
	var ids []uint
	for ref := range c.parts {
		if ref.Category == category {
			ids = append(ids, ref.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeMarket struct {
	result  *rakuten.SearchResult
	ranking []rakuten.RankingItem
	err     error
}

func (m *fakeMarket) Search(ctx context.Context, keyword string, category models.Category, page, pageSize int) (*rakuten.SearchResult, error) {
	return m.result, m.err
}

func (m *fakeMarket) Ranking(ctx context.Context, category models.Category, page int) ([]rakuten.RankingItem, error) {
	return m.ranking, m.err
}

func newTestRouter(t *testing.T, store history.Store, cat *fakeCatalog, market *fakeMarket) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ingester := ingest.NewService(cat, market, store)
	trends := analysis.NewTrendAnalyzer(store)
	advisor := analysis.NewAdvisor(store)
	aggregator := analysis.NewAggregator(store, cat, advisor)

	r := gin.New()
	SetupRoutes(r.Group("/api/v1"), cat, store, market, ingester, trends, advisor, aggregator)
	return r
}

func seedPart(store history.Store, ref models.PartRef, points map[int]int) {
	now := time.Now()
	for days, price := range points {
		store.Append(context.Background(), &models.PriceObservation{
			PartCategory: ref.Category,
			PartID:       ref.ID,
			Price:        price,
			Source:       models.SourceMarketplace,
			FetchedAt:    now.AddDate(0, 0, -days),
		})
	}
}

func TestGetPartAdvisory(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryCPU, ID: 1}
	cat := &fakeCatalog{parts: map[models.PartRef]*models.Part{
		ref: {Ref: ref, Name: "Core i5-13400F", Maker: "Intel"},
	}}
	seedPart(store, ref, map[int]int{25: 60000, 10: 55000, 1: 52000})

	r := newTestRouter(t, store, cat, &fakeMarket{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/parts/cpu/1/advisory", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var verdict models.AdvisoryVerdict
	if err := json.Unmarshal(w.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if verdict.Verdict != models.VerdictBuyNow || verdict.Confidence != 0.85 {
		t.Errorf("verdict = %+v, want buy_now/0.85", verdict)
	}
}

func TestGetPartAdvisory_UnknownCategory(t *testing.T) {
	r := newTestRouter(t, history.NewMemoryStore(), &fakeCatalog{parts: map[models.PartRef]*models.Part{}}, &fakeMarket{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/parts/keyboard/1/advisory", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetPartAdvisory_UnknownPart(t *testing.T) {
	r := newTestRouter(t, history.NewMemoryStore(), &fakeCatalog{parts: map[models.PartRef]*models.Part{}}, &fakeMarket{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/parts/cpu/42/advisory", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRefreshPart_AppendsObservation(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryGPU, ID: 2}
	cat := &fakeCatalog{parts: map[models.PartRef]*models.Part{
		ref: {Ref: ref, Name: "RTX 4070", Maker: "MSI"},
	}}
	market := &fakeMarket{result: &rakuten.SearchResult{
		Items: []rakuten.Item{{Name: "MSI RTX 4070", Price: 89800, URL: "https://m/9"}},
	}}

	r := newTestRouter(t, store, cat, market)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/parts/gpu/2/refresh", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if store.Len() != 1 {
		t.Errorf("ledger rows = %d, want 1", store.Len())
	}
}

func TestRefreshPart_UpstreamFailureIs502(t *testing.T) {
	ref := models.PartRef{Category: models.CategoryGPU, ID: 2}
	cat := &fakeCatalog{parts: map[models.PartRef]*models.Part{
		ref: {Ref: ref, Name: "RTX 4070", Maker: "MSI"},
	}}
	market := &fakeMarket{err: fmt.Errorf("%w: upstream error 503", errs.ErrUpstream)}

	r := newTestRouter(t, history.NewMemoryStore(), cat, market)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/parts/gpu/2/refresh", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestRefreshCategory_ReportsOutcomes(t *testing.T) {
	store := history.NewMemoryStore()
	refA := models.PartRef{Category: models.CategoryPSU, ID: 1}
	refB := models.PartRef{Category: models.CategoryPSU, ID: 2}
	cat := &fakeCatalog{parts: map[models.PartRef]*models.Part{
		refA: {Ref: refA, Name: "RM850e", Maker: "Corsair"},
		refB: {Ref: refB, Name: "Focus GX-750", Maker: "Seasonic"},
	}}
	market := &fakeMarket{result: &rakuten.SearchResult{
		Items: []rakuten.Item{{Name: "a psu", Price: 18000}},
	}}

	r := newTestRouter(t, store, cat, market)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/categories/psu/refresh", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		SuccessCount int              `json:"success_count"`
		Outcomes     []ingest.Outcome `json:"outcomes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.SuccessCount != 2 || len(body.Outcomes) != 2 {
		t.Errorf("body = %+v, want 2 successes with per-part outcomes", body)
	}
}

func TestGetCategoryRanking(t *testing.T) {
	market := &fakeMarket{ranking: []rakuten.RankingItem{
		{Item: rakuten.Item{Name: "Ryzen 7 7800X3D", Price: 58000}, Rank: 1},
		{Item: rakuten.Item{Name: "Core i5-13400F", Price: 32000}, Rank: 2},
	}}
	r := newTestRouter(t, history.NewMemoryStore(), &fakeCatalog{parts: map[models.PartRef]*models.Part{}}, market)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/categories/cpu/ranking", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Page  int                   `json:"page"`
		Items []rakuten.RankingItem `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Page != 1 || len(body.Items) != 2 || body.Items[0].Rank != 1 {
		t.Errorf("body = %+v, want page 1 with 2 ranked items", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/categories/keyboard/ranking", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status for unknown category = %d, want 400", w.Code)
	}
}

func TestGetBiggestMovers_RespectsDirection(t *testing.T) {
	store := history.NewMemoryStore()
	ref := models.PartRef{Category: models.CategoryCPU, ID: 1}
	cat := &fakeCatalog{parts: map[models.PartRef]*models.Part{
		ref: {Ref: ref, Name: "Core i5-13400F"},
	}}
	seedPart(store, ref, map[int]int{20: 10000, 1: 12000}) // +20%

	r := newTestRouter(t, store, cat, &fakeMarket{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/deals/movers?direction=up&limit=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Movers []models.Mover `json:"movers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Movers) != 1 || body.Movers[0].ChangePercent != 20.0 {
		t.Errorf("movers = %+v, want the +20%% part", body.Movers)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/deals/movers?direction=sideways", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status for bad direction = %d, want 400", w.Code)
	}
}
