// Package store is the external data-store collaborator: the two tables the
// contribute flow writes (datasets, observations) behind a small interface so
// handlers and the orchestrator can be tested without a live database.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

// ErrDuplicateTitle is returned when a dataset insert collides with an
// existing title.
var ErrDuplicateTitle = errors.New("a dataset with this title already exists")

// DataStore is the contract the ingestion flow depends on. The observation
// batch insert is expected to be atomic; partial-failure behavior beyond
// that is the store's responsibility, not this system's.
type DataStore interface {
	InsertDataset(ctx context.Context, dataset *models.Dataset) error
	InsertObservations(ctx context.Context, observations []models.Observation) error
	ListDatasets(ctx context.Context) ([]models.Dataset, error)
}

// GormStore implements DataStore on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an existing gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// InsertDataset writes one datasets row. Title collisions surface as
// ErrDuplicateTitle; every other failure is surfaced verbatim.
func (s *GormStore) InsertDataset(ctx context.Context, dataset *models.Dataset) error {
	if err := s.db.WithContext(ctx).Create(dataset).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return ErrDuplicateTitle
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("failed to insert dataset %q: %w", dataset.Title, err)
	}
	log.Printf("Store: inserted dataset %s (%q)", dataset.ID, dataset.Title)
	return nil
}

// InsertObservations writes the projected batch in a single transaction.
func (s *GormStore) InsertObservations(ctx context.Context, observations []models.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(observations, 500).Error; err != nil {
		return fmt.Errorf("failed to insert %d observations: %w", len(observations), err)
	}
	log.Printf("Store: inserted %d observations for dataset %s", len(observations), observations[0].DatasetID)
	return nil
}

// ListDatasets returns every stored dataset, newest first.
func (s *GormStore) ListDatasets(ctx context.Context) ([]models.Dataset, error) {
	var datasets []models.Dataset
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&datasets).Error; err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return datasets, nil
}
