package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Dataset{}, &models.Observation{}))
	return NewGormStore(db)
}

func TestInsertAndListDatasets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dataset := &models.Dataset{
		ID:      uuid.New(),
		Title:   "Leeds homelessness counts",
		License: "OGL-3.0",
		Owner:   "Leeds City Council",
	}
	require.NoError(t, store.InsertDataset(ctx, dataset))

	datasets, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, dataset.ID, datasets[0].ID)
	assert.Equal(t, "Leeds homelessness counts", datasets[0].Title)
}

func TestInsertDatasetDuplicateTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.Dataset{ID: uuid.New(), Title: "Same title"}
	require.NoError(t, store.InsertDataset(ctx, first))

	second := &models.Dataset{ID: uuid.New(), Title: "Same title"}
	err := store.InsertDataset(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateTitle)
}

func TestInsertObservations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	datasetID := uuid.New()
	require.NoError(t, store.InsertDataset(ctx, &models.Dataset{ID: datasetID, Title: "T"}))

	observations := []models.Observation{
		{ID: uuid.New(), DatasetID: datasetID, Name: "Count", Value: 10, PlaceUpload: "Leeds", Date: "2023-02-01"},
		{ID: uuid.New(), DatasetID: datasetID, Name: "Count", Value: 20, PlaceUpload: "York", Date: "2023-02-02"},
	}
	require.NoError(t, store.InsertObservations(ctx, observations))

	var count int64
	require.NoError(t, store.db.Model(&models.Observation{}).Where("dataset_id = ?", datasetID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// An empty batch is a no-op, not an error.
	assert.NoError(t, store.InsertObservations(ctx, nil))
}
