package models

import (
	"time"
)

// Category identifies one of the eight independent part tables.
// Parts are not a single polymorphic entity upstream; a (Category, ID)
// pair is the only way to address one.
type Category string

const (
	CategoryCPU         Category = "cpu"
	CategoryGPU         Category = "gpu"
	CategoryMemory      Category = "memory"
	CategoryStorage     Category = "storage"
	CategoryOS          Category = "os"
	CategoryMotherboard Category = "motherboard"
	CategoryPSU         Category = "psu"
	CategoryCase        Category = "case"
)

// AllCategories in stable display order.
var AllCategories = []Category{
	CategoryCPU,
	CategoryGPU,
	CategoryMemory,
	CategoryStorage,
	CategoryOS,
	CategoryMotherboard,
	CategoryPSU,
	CategoryCase,
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	for _, known := range AllCategories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// PartRef addresses a part across the eight category tables.
type PartRef struct {
	Category Category `json:"category"`
	ID       uint     `json:"id"`
}

// Part is the read view of a catalog row. The catalog owns these rows;
// this subsystem only reads them and writes back the external-link cache
// after a successful ingestion.
type Part struct {
	Ref              PartRef    `json:"ref"`
	Name             string     `json:"name"`
	Maker            string     `json:"maker"`
	Price            int        `json:"price"`
	ExternalURL      string     `json:"external_url"`
	ExternalImageURL string     `json:"external_image_url"`
	LastCheckedAt    *time.Time `json:"last_checked_at"`
}

// ExternalLink is the write-through cache ingest updates on a part.
type ExternalLink struct {
	ExternalURL      string
	ExternalImageURL string
	LastCheckedAt    time.Time
}

// ObservationSource tells where a recorded price came from.
type ObservationSource string

const (
	SourceMarketplace          ObservationSource = "marketplace"
	SourceAlternateMarketplace ObservationSource = "alternate_marketplace"
	SourceManual               ObservationSource = "manual"
)

// PriceObservation is one immutable row of the append-only price ledger.
// There is deliberately no update or delete path: repeated ingestion of an
// unchanged price still appends. PartCategory+PartID is a soft reference
// (no FK, the parts live in eight separate tables).
type PriceObservation struct {
	ID                  uint              `json:"id" gorm:"primaryKey"`
	PartCategory        Category          `json:"part_category" gorm:"type:varchar(16);index:idx_obs_part;not null"`
	PartID              uint              `json:"part_id" gorm:"index:idx_obs_part;not null"`
	Price               int               `json:"price" gorm:"not null"`
	Source              ObservationSource `json:"source" gorm:"type:varchar(32);index;not null"`
	ExternalURL         string            `json:"external_url"`
	ObservedProductName string            `json:"observed_product_name"`
	FetchedAt           time.Time         `json:"fetched_at" gorm:"index;not null"`
	CreatedAt           time.Time         `json:"created_at"`
}

// TableName keeps the ledger table name stable.
func (PriceObservation) TableName() string { return "price_observations" }

// TrendDirection of a windowed price series.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// TrendSummary is derived per part over an ordered observation window.
// Never persisted.
type TrendSummary struct {
	Direction     TrendDirection `json:"direction"`
	ChangePercent float64        `json:"change_percent"`
	MinPrice      int            `json:"min_price"`
	MaxPrice      int            `json:"max_price"`
	AvgPrice      int            `json:"avg_price"`
}

// Verdict is the buy-timing recommendation.
type Verdict string

const (
	VerdictBuyNow  Verdict = "buy_now"
	VerdictWait    Verdict = "wait"
	VerdictNeutral Verdict = "neutral"
)

// AdvisoryVerdict is the advisor's output for one part.
type AdvisoryVerdict struct {
	Verdict    Verdict       `json:"verdict"`
	Message    string        `json:"message"`
	Confidence float64       `json:"confidence"`
	Trend      *TrendSummary `json:"trend"`
}

// CategoryTrend is the aggregate trend over every part of a category.
type CategoryTrend struct {
	Category      Category       `json:"category"`
	ChangePercent float64        `json:"change_percent"`
	Direction     TrendDirection `json:"direction"`
	AvgPrice      int            `json:"avg_price"`
	PartCount     int            `json:"part_count"`
}

// DailyAverage is one point of a category's per-date average series.
type DailyAverage struct {
	Date     string `json:"date"` // YYYY-MM-DD
	AvgPrice int    `json:"avg_price"`
}

// Deal is one entry of the best-deals digest.
type Deal struct {
	Part          PartRef `json:"part"`
	PartName      string  `json:"part_name"`
	Verdict       Verdict `json:"verdict"`
	Confidence    float64 `json:"confidence"`
	ChangePercent float64 `json:"change_percent"`
	CurrentPrice  int     `json:"current_price"`
	// WeekDelta is current price minus the observation nearest 7 days
	// back, when one exists.
	WeekDelta *int `json:"week_delta,omitempty"`
}

// Mover is one entry of the biggest-changes digest.
type Mover struct {
	Part          PartRef `json:"part"`
	PartName      string  `json:"part_name"`
	ChangePercent float64 `json:"change_percent"`
	CurrentPrice  int     `json:"current_price"`
}
