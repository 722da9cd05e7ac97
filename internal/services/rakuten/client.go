// Package rakuten talks to the marketplace item API. All outbound traffic
// funnels through one shared Gate so the process never exceeds the
// per-credential request rate.
package rakuten

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pcpart-tracker/internal/errs"
	"pcpart-tracker/internal/models"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://app.rakuten.co.jp/services/api"

const (
	searchPath  = "/IchibaItem/Search/20220601"
	rankingPath = "/IchibaItem/Ranking/20220601"
)

// Config carries the client credentials and site identity.
type Config struct {
	// AppID and AffiliateID are the two upstream credentials. Both are
	// required; calls fail before touching the network when either is
	// empty.
	AppID       string
	AffiliateID string
	// SiteURL is sent as Referer and Origin on every request. The
	// provider rejects calls without an allow-listed site identity.
	SiteURL string
	// BaseURL overrides the production endpoint (tests).
	BaseURL string
}

// Client is the rate-limited marketplace client.
type Client struct {
	http    *resty.Client
	cfg     Config
	baseURL string
	gate    Gate
}

// NewClient builds a client around the shared gate.
func NewClient(cfg Config, gate Gate) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := resty.New()
	httpClient.SetTimeout(30 * time.Second)

	return &Client{
		http:    httpClient,
		cfg:     cfg,
		baseURL: base,
		gate:    gate,
	}
}

func (c *Client) checkCredentials() error {
	if c.cfg.AppID == "" {
		return fmt.Errorf("%w: marketplace application id is not set", errs.ErrConfiguration)
	}
	if c.cfg.AffiliateID == "" {
		return fmt.Errorf("%w: marketplace affiliate id is not set", errs.ErrConfiguration)
	}
	return nil
}

// Search queries items by keyword, optionally scoped to a category genre.
// pageSize is clamped to the upstream maximum of 30.
func (c *Client) Search(ctx context.Context, keyword string, category models.Category, page, pageSize int) (*SearchResult, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: search keyword must not be empty", errs.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 30 {
		pageSize = 30
	}

	params := map[string]string{
		"applicationId": c.cfg.AppID,
		"affiliateId":   c.cfg.AffiliateID,
		"format":        "json",
		"keyword":       keyword,
		"page":          strconv.Itoa(page),
		"hits":          strconv.Itoa(pageSize),
	}
	if genre, ok := genreIDs[category]; ok {
		params["genreId"] = genre
	}

	var parsed searchResponse
	if err := c.call(ctx, searchPath, params, &parsed); err != nil {
		return nil, err
	}

	result := &SearchResult{TotalCount: parsed.Count}
	for _, wrapped := range parsed.Items {
		result.Items = append(result.Items, normalizeItem(wrapped.Item))
	}
	return result, nil
}

// Ranking fetches the genre ranking page for a category.
func (c *Client) Ranking(ctx context.Context, category models.Category, page int) ([]RankingItem, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	genre, ok := genreIDs[category]
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", errs.ErrValidation, category)
	}
	if page < 1 {
		page = 1
	}

	params := map[string]string{
		"applicationId": c.cfg.AppID,
		"affiliateId":   c.cfg.AffiliateID,
		"format":        "json",
		"genreId":       genre,
		"page":          strconv.Itoa(page),
	}

	var parsed rankingResponse
	if err := c.call(ctx, rankingPath, params, &parsed); err != nil {
		return nil, err
	}

	var items []RankingItem
	for _, wrapped := range parsed.Items {
		w := wrapped.Item
		avg, _ := strconv.ParseFloat(w.ReviewAverage, 64)
		items = append(items, RankingItem{
			Item:          normalizeItem(w),
			Rank:          w.Rank,
			ReviewCount:   w.ReviewCount,
			ReviewAverage: avg,
		})
	}
	return items, nil
}

// call acquires the gate, performs one GET and decodes the body into dst.
// Every failure path comes back as a wrapped sentinel; nothing panics or
// leaks transport errors past this boundary.
func (c *Client) call(ctx context.Context, path string, params map[string]string, dst interface{}) error {
	if err := c.gate.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrConnection, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetHeader("Referer", c.cfg.SiteURL).
		SetHeader("Origin", c.cfg.SiteURL).
		SetHeader("Accept", "application/json").
		Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%w: marketplace request failed: %v", errs.ErrConnection, err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %s", errs.ErrUpstream, upstreamMessage(resp.StatusCode(), resp.Body()))
	}

	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return fmt.Errorf("%w: malformed marketplace response: %v", errs.ErrUpstream, err)
	}
	return nil
}

// upstreamMessage pulls the structured error description out of an error
// body, falling back to a generic status message.
func upstreamMessage(status int, body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.ErrorDescription != "" {
			return parsed.ErrorDescription
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("upstream error %d", status)
}

func normalizeItem(w wireItem) Item {
	item := Item{
		Name:     w.ItemName,
		Price:    w.ItemPrice,
		URL:      w.ItemURL,
		ShopName: w.ShopName,
		ItemCode: w.ItemCode,
		GenreID:  w.GenreID,
	}
	if len(w.MediumImageURLs) > 0 {
		item.ImageURL = w.MediumImageURLs[0].ImageURL
	}
	return item
}
