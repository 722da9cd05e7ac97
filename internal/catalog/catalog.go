// Package catalog is the read/side-effect surface this subsystem consumes
// from the part catalog. The catalog keeps each category in its own table,
// so lookup goes through a category -> table map instead of a shared base
// entity.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pcpart-tracker/internal/errs"
	"pcpart-tracker/internal/models"

	"gorm.io/gorm"
)

// Catalog resolves parts and accepts the external-link cache write-back.
type Catalog interface {
	GetPart(ctx context.Context, ref models.PartRef) (*models.Part, error)
	UpdateExternalLink(ctx context.Context, ref models.PartRef, link models.ExternalLink) error
	ListPartIDs(ctx context.Context, category models.Category) ([]uint, error)
}

// categoryTables maps each category to its catalog table.
var categoryTables = map[models.Category]string{
	models.CategoryCPU:         "cpus",
	models.CategoryGPU:         "gpus",
	models.CategoryMemory:      "memories",
	models.CategoryStorage:     "storages",
	models.CategoryOS:          "operating_systems",
	models.CategoryMotherboard: "motherboards",
	models.CategoryPSU:         "power_supplies",
	models.CategoryCase:        "cases",
}

// GormCatalog reads the catalog tables directly. Only the columns this
// subsystem touches are selected; category-specific spec columns stay
// opaque to it.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

type partRow struct {
	ID               uint
	Name             string
	Maker            string
	Price            int
	ExternalURL      string
	ExternalImageURL string
	LastCheckedAt    *time.Time
}

func tableFor(category models.Category) (string, error) {
	table, ok := categoryTables[category]
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", errs.ErrValidation, category)
	}
	return table, nil
}

func (c *GormCatalog) GetPart(ctx context.Context, ref models.PartRef) (*models.Part, error) {
	table, err := tableFor(ref.Category)
	if err != nil {
		return nil, err
	}

	var row partRow
	err = c.db.WithContext(ctx).Table(table).
		Select("id, name, maker, price, external_url, external_image_url, last_checked_at").
		Where("id = ?", ref.ID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s part %d", errs.ErrNotFound, ref.Category, ref.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s part %d: %w", ref.Category, ref.ID, err)
	}

	return &models.Part{
		Ref:              ref,
		Name:             row.Name,
		Maker:            row.Maker,
		Price:            row.Price,
		ExternalURL:      row.ExternalURL,
		ExternalImageURL: row.ExternalImageURL,
		LastCheckedAt:    row.LastCheckedAt,
	}, nil
}

func (c *GormCatalog) UpdateExternalLink(ctx context.Context, ref models.PartRef, link models.ExternalLink) error {
	table, err := tableFor(ref.Category)
	if err != nil {
		return err
	}

	res := c.db.WithContext(ctx).Table(table).
		Where("id = ?", ref.ID).
		Updates(map[string]interface{}{
			"external_url":       link.ExternalURL,
			"external_image_url": link.ExternalImageURL,
			"last_checked_at":    link.LastCheckedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update %s part %d external link: %w", ref.Category, ref.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s part %d", errs.ErrNotFound, ref.Category, ref.ID)
	}
	return nil
}

func (c *GormCatalog) ListPartIDs(ctx context.Context, category models.Category) ([]uint, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	var ids []uint
	if err := c.db.WithContext(ctx).Table(table).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list %s part ids: %w", category, err)
	}
	return ids, nil
}
