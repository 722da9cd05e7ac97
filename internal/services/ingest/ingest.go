// Package ingest records new marketplace price observations. It is the
// only writer of the price ledger; everything else reads.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"pcpart-tracker/internal/catalog"
	"pcpart-tracker/internal/errs"
	"pcpart-tracker/internal/history"
	"pcpart-tracker/internal/models"
	"pcpart-tracker/internal/services/rakuten"
)

// Market is the slice of the marketplace client ingestion needs.
type Market interface {
	Search(ctx context.Context, keyword string, category models.Category, page, pageSize int) (*rakuten.SearchResult, error)
}

// Service orchestrates catalog + marketplace + ledger for one observation
// per part.
type Service struct {
	catalog catalog.Catalog
	market  Market
	store   history.Store
	now     func() time.Time
}

func NewService(cat catalog.Catalog, market Market, store history.Store) *Service {
	return &Service{
		catalog: cat,
		market:  market,
		store:   store,
		now:     time.Now,
	}
}

// IngestOne records one new price observation for a part and refreshes the
// part's cached external link. Every successful call appends a new ledger
// row even when the price is unchanged.
func (s *Service) IngestOne(ctx context.Context, ref models.PartRef) (*models.PriceObservation, error) {
	part, err := s.catalog.GetPart(ctx, ref)
	if err != nil {
		return nil, err
	}

	keyword := part.Maker + " " + part.Name
	result, err := s.market.Search(ctx, keyword, ref.Category, 1, 30)
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("%w: no marketplace results for %q", errs.ErrNoData, keyword)
	}

	matched := rakuten.BestMatch(part.Name, result.Items)

	obs := &models.PriceObservation{
		PartCategory:        ref.Category,
		PartID:              ref.ID,
		Price:               matched.Price,
		Source:              models.SourceMarketplace,
		ExternalURL:         matched.URL,
		ObservedProductName: matched.Name,
		FetchedAt:           s.now(),
	}
	if err := s.store.Append(ctx, obs); err != nil {
		return nil, fmt.Errorf("append observation for %s part %d: %w", ref.Category, ref.ID, err)
	}

	// Latest-known cache on the part itself, subordinate to the ledger:
	// a failure here does not undo the appended row.
	link := models.ExternalLink{
		ExternalURL:      matched.URL,
		ExternalImageURL: matched.ImageURL,
		LastCheckedAt:    obs.FetchedAt,
	}
	if err := s.catalog.UpdateExternalLink(ctx, ref, link); err != nil {
		log.Printf("ingest: external link update failed for %s part %d: %v", ref.Category, ref.ID, err)
	}

	return obs, nil
}

// Outcome is the per-part result of a bulk run.
type Outcome struct {
	Part        models.PartRef           `json:"part"`
	Observation *models.PriceObservation `json:"observation,omitempty"`
	Err         string                   `json:"error,omitempty"`
}

// OK reports whether this part was ingested.
func (o Outcome) OK() bool { return o.Err == "" }

// IngestAll runs IngestOne over every part of a category, sequentially
// through the shared rate gate. One part's failure never aborts the rest;
// each part gets its own outcome entry.
func (s *Service) IngestAll(ctx context.Context, category models.Category) ([]Outcome, error) {
	ids, err := s.catalog.ListPartIDs(ctx, category)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		ref := models.PartRef{Category: category, ID: id}
		obs, err := s.IngestOne(ctx, ref)
		if err != nil {
			log.Printf("ingest: %s part %d skipped: %v", category, id, err)
			outcomes = append(outcomes, Outcome{Part: ref, Err: err.Error()})
			continue
		}
		outcomes = append(outcomes, Outcome{Part: ref, Observation: obs})
	}
	return outcomes, nil
}

// SuccessCount aggregates a bulk run for callers that only want the number.
func SuccessCount(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}
