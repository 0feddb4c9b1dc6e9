package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/config"
	"bill-advisor/internal/reference"
)

func TestStoreWithoutPool(t *testing.T) {
	ctx := context.Background()
	var nilStore *Store
	stores := []*Store{nilStore, NewStore(nil)}

	for _, s := range stores {
		assert.ErrorIs(t, s.SaveAnalysis(ctx, AnalysisRecord{ID: uuid.New()}), ErrNotConfigured)
		_, err := s.GetAnalysis(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = s.ListRecentAnalyses(ctx, 5)
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.ErrorIs(t, s.DeleteAnalysis(ctx, uuid.New()), ErrNotConfigured)
		_, err = s.ClearAnalyses(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = s.CountAnalyses(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)

		err = s.UpsertPrices(ctx, []reference.PricePoint{{Date: billing.NewDate(2024, time.January, 1)}})
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = s.CommodityPrices(ctx, billing.NewDate(2024, time.January, 1), billing.NewDate(2024, time.January, 31))
		assert.ErrorIs(t, err, ErrNotConfigured)

		_, err = s.InsertAlert(ctx, AlertRecord{})
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, _, err = s.TryAdvisoryLock(ctx, 1)
		assert.ErrorIs(t, err, ErrNotConfigured)

		s.Close()
	}
}

func TestNewPoolRequiresDSN(t *testing.T) {
	_, err := NewPool(context.Background(), config.DatabaseConfig{})
	assert.Error(t, err)
}
