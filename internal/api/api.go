package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"pcpart-tracker/internal/analysis"
	"pcpart-tracker/internal/catalog"
	"pcpart-tracker/internal/errs"
	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
	"pcpart-tracker/internal/services/ingest"
	"pcpart-tracker/internal/services/rakuten"

	"github.com/gin-gonic/gin"
)

// RankingClient is the slice of the marketplace client the API needs for
// the popular-items endpoint.
type RankingClient interface {
	Ranking(ctx context.Context, category models.Category, page int) ([]rakuten.RankingItem, error)
}

// APIHandler exposes the price intelligence core over JSON. It owns no
// semantics: every handler parses, delegates and maps errors.
type APIHandler struct {
	catalog    catalog.Catalog
	store      history.Store
	market     RankingClient
	ingester   *ingest.Service
	trends     *analysis.TrendAnalyzer
	advisor    *analysis.Advisor
	aggregator *analysis.Aggregator
}

func SetupRoutes(r *gin.RouterGroup, cat catalog.Catalog, store history.Store, market RankingClient,
	ingester *ingest.Service, trends *analysis.TrendAnalyzer,
	advisor *analysis.Advisor, aggregator *analysis.Aggregator) *APIHandler {

	handler := &APIHandler{
		catalog:    cat,
		store:      store,
		market:     market,
		ingester:   ingester,
		trends:     trends,
		advisor:    advisor,
		aggregator: aggregator,
	}

	parts := r.Group("/parts")
	{
		parts.GET("/:category/:id/advisory", handler.GetPartAdvisory)
		parts.GET("/:category/:id/history", handler.GetPartHistory)
		parts.POST("/:category/:id/refresh", handler.RefreshPart)
	}

	categories := r.Group("/categories")
	{
		categories.GET("", handler.ListCategoryTrends)
		categories.GET("/:category", handler.GetCategoryDetail)
		categories.GET("/:category/ranking", handler.GetCategoryRanking)
		categories.POST("/:category/refresh", handler.RefreshCategory)
	}

	deals := r.Group("/deals")
	{
		deals.GET("/best", handler.GetBestDeals)
		deals.GET("/movers", handler.GetBiggestMovers)
	}

	return handler
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUpstream), errors.Is(err, errs.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *APIHandler) partRef(c *gin.Context) (models.PartRef, bool) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category " + c.Param("category")})
		return models.PartRef{}, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid part id"})
		return models.PartRef{}, false
	}
	return models.PartRef{Category: category, ID: uint(id)}, true
}

func windowParam(c *gin.Context) int {
	if w, err := strconv.Atoi(c.DefaultQuery("window", "30")); err == nil && w > 0 {
		return w
	}
	return analysis.DefaultWindowDays
}

func limitParam(c *gin.Context) int {
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		return l
	}
	return 10
}

// GET /parts/:category/:id/advisory
func (h *APIHandler) GetPartAdvisory(c *gin.Context) {
	ref, ok := h.partRef(c)
	if !ok {
		return
	}
	if _, err := h.catalog.GetPart(c.Request.Context(), ref); err != nil {
		fail(c, err)
		return
	}

	verdict, err := h.advisor.Advise(c.Request.Context(), ref, windowParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// GET /parts/:category/:id/history?window=30
func (h *APIHandler) GetPartHistory(c *gin.Context) {
	ref, ok := h.partRef(c)
	if !ok {
		return
	}
	window := windowParam(c)

	trend, err := h.trends.ComputeTrend(c.Request.Context(), ref, window)
	if err != nil {
		fail(c, err)
		return
	}

	rows, err := h.store.Query(c.Request.Context(), history.Filter{
		Category: ref.Category,
		PartID:   &ref.ID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"part":        ref,
		"window_days": window,
		"trend":       trend,
		"history":     rows,
	})
}

// POST /parts/:category/:id/refresh
func (h *APIHandler) RefreshPart(c *gin.Context) {
	ref, ok := h.partRef(c)
	if !ok {
		return
	}
	obs, err := h.ingester.IngestOne(c.Request.Context(), ref)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observation": obs})
}

// POST /categories/:category/refresh
func (h *APIHandler) RefreshCategory(c *gin.Context) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category " + c.Param("category")})
		return
	}
	outcomes, err := h.ingester.IngestAll(c.Request.Context(), category)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success_count": ingest.SuccessCount(outcomes),
		"outcomes":      outcomes,
	})
}

// GET /categories/:category/ranking?page=1
func (h *APIHandler) GetCategoryRanking(c *gin.Context) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category " + c.Param("category")})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	items, err := h.market.Ranking(c.Request.Context(), category, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "page": page, "items": items})
}

// GET /categories
func (h *APIHandler) ListCategoryTrends(c *gin.Context) {
	window := windowParam(c)

	type entry struct {
		Category models.Category       `json:"category"`
		Trend    *models.CategoryTrend `json:"trend"`
	}
	out := make([]entry, 0, len(models.AllCategories))
	for _, category := range models.AllCategories {
		trend, err := h.aggregator.CategoryTrend(c.Request.Context(), category, window)
		if err != nil {
			fail(c, err)
			return
		}
		out = append(out, entry{Category: category, Trend: trend})
	}
	c.JSON(http.StatusOK, gin.H{"window_days": window, "categories": out})
}

type partDelta struct {
	Part         models.PartRef `json:"part"`
	Name         string         `json:"name"`
	CurrentPrice int            `json:"current_price"`
	Change7d     *float64       `json:"change_7d"`
	Change30d    *float64       `json:"change_30d"`
}

// GET /categories/:category?sort=7d|30d&order=asc|desc
func (h *APIHandler) GetCategoryDetail(c *gin.Context) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category " + c.Param("category")})
		return
	}
	ctx := c.Request.Context()

	trend, err := h.aggregator.CategoryTrend(ctx, category, analysis.DefaultWindowDays)
	if err != nil {
		fail(c, err)
		return
	}
	daily, err := h.aggregator.DailyAverages(ctx, category, analysis.DefaultWindowDays)
	if err != nil {
		fail(c, err)
		return
	}

	ids, err := h.catalog.ListPartIDs(ctx, category)
	if err != nil {
		fail(c, err)
		return
	}

	parts := make([]partDelta, 0, len(ids))
	for _, id := range ids {
		ref := models.PartRef{Category: category, ID: id}
		part, err := h.catalog.GetPart(ctx, ref)
		if err != nil {
			continue
		}
		entry := partDelta{Part: ref, Name: part.Name, CurrentPrice: part.Price}
		if t, err := h.trends.ComputeTrend(ctx, ref, 7); err == nil && t != nil {
			cp := t.ChangePercent
			entry.Change7d = &cp
		}
		if t, err := h.trends.ComputeTrend(ctx, ref, 30); err == nil && t != nil {
			cp := t.ChangePercent
			entry.Change30d = &cp
		}
		parts = append(parts, entry)
	}

	sortPartDeltas(parts, c.DefaultQuery("sort", "30d"), c.DefaultQuery("order", "asc"))

	c.JSON(http.StatusOK, gin.H{
		"category":       category,
		"trend":          trend,
		"daily_averages": daily,
		"parts":          parts,
	})
}

// sortPartDeltas orders by the requested delta column; parts without data
// for that column sink to the end.
func sortPartDeltas(parts []partDelta, key, order string) {
	pick := func(p partDelta) *float64 {
		if key == "7d" {
			return p.Change7d
		}
		return p.Change30d
	}
	sort.SliceStable(parts, func(i, j int) bool {
		a, b := pick(parts[i]), pick(parts[j])
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if order == "desc" {
			return *a > *b
		}
		return *a < *b
	})
}

// GET /deals/best?limit=10
func (h *APIHandler) GetBestDeals(c *gin.Context) {
	deals, err := h.aggregator.BestDeals(c.Request.Context(), limitParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deals": deals})
}

// GET /deals/movers?direction=down&limit=10
func (h *APIHandler) GetBiggestMovers(c *gin.Context) {
	direction := models.TrendDirection(c.DefaultQuery("direction", "down"))
	movers, err := h.aggregator.BiggestChanges(c.Request.Context(), direction, limitParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"direction": direction, "movers": movers})
}
