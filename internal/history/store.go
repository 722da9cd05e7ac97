// Package history owns the append-only price observation ledger.
package history

import (
	"context"
	"time"

	"pcpart-tracker/internal/models"

	"gorm.io/gorm"
)

// Filter narrows a ledger query. Category is required; the rest are
// optional. Results always come back ordered ascending by fetched_at.
type Filter struct {
	Category models.Category
	PartID   *uint
	Since    *time.Time
	Source   *models.ObservationSource
}

// Store is the ledger surface. Append is the only write; rows are never
// updated or deleted, so readers need no locking against writers.
type Store interface {
	Append(ctx context.Context, obs *models.PriceObservation) error
	Query(ctx context.Context, f Filter) ([]models.PriceObservation, error)
}

// GormStore persists observations in the price_observations table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, obs *models.PriceObservation) error {
	return s.db.WithContext(ctx).Create(obs).Error
}

func (s *GormStore) Query(ctx context.Context, f Filter) ([]models.PriceObservation, error) {
	q := s.db.WithContext(ctx).
		Model(&models.PriceObservation{}).
		Where("part_category = ?", f.Category)
	if f.PartID != nil {
		q = q.Where("part_id = ?", *f.PartID)
	}
	if f.Since != nil {
		q = q.Where("fetched_at >= ?", *f.Since)
	}
	if f.Source != nil {
		q = q.Where("source = ?", *f.Source)
	}

	var rows []models.PriceObservation
	if err := q.Order("fetched_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
