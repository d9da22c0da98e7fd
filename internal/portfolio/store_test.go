package portfolio_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/stockfolio/internal/portfolio"
	"github.com/stockfolio/stockfolio/pkg/models"
)

func TestStoreGetAbsent(t *testing.T) {
	store := portfolio.NewGormStore(setupTestDB(t))

	pos, err := store.Get(context.Background(), uuid.New(), "2330")
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestStoreUpsertInsertThenUpdate(t *testing.T) {
	store := portfolio.NewGormStore(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	pos := &models.Position{
		UserID:       userID,
		InstrumentID: "2330",
		DisplayName:  "TSMC",
		QuantityHeld: 10,
		AverageCost:  dec("100.00"),
	}
	require.NoError(t, store.Upsert(ctx, pos))

	pos.QuantityHeld = 25
	pos.AverageCost = dec("140.00")
	require.NoError(t, store.Upsert(ctx, pos))

	stored, err := store.Get(ctx, userID, "2330")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(25), stored.QuantityHeld)
	assert.True(t, stored.AverageCost.Equal(dec("140.00")))
}

func TestStoreKeyIsUserAndInstrument(t *testing.T) {
	store := portfolio.NewGormStore(setupTestDB(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, store.Upsert(ctx, &models.Position{
		UserID: alice, InstrumentID: "2330", DisplayName: "TSMC",
		QuantityHeld: 1, AverageCost: dec("10.00"),
	}))
	require.NoError(t, store.Upsert(ctx, &models.Position{
		UserID: bob, InstrumentID: "2330", DisplayName: "TSMC",
		QuantityHeld: 7, AverageCost: dec("12.00"),
	}))

	stored, err := store.Get(ctx, alice, "2330")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(1), stored.QuantityHeld)
}

func TestStoreDelete(t *testing.T) {
	store := portfolio.NewGormStore(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Upsert(ctx, &models.Position{
		UserID: userID, InstrumentID: "2330", DisplayName: "TSMC",
		QuantityHeld: 1, AverageCost: dec("10.00"),
	}))
	require.NoError(t, store.Delete(ctx, userID, "2330"))

	stored, err := store.Get(ctx, userID, "2330")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestStoreListFiltersByUser(t *testing.T) {
	store := portfolio.NewGormStore(setupTestDB(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, store.Upsert(ctx, &models.Position{
		UserID: alice, InstrumentID: "2330", DisplayName: "TSMC",
		QuantityHeld: 1, AverageCost: dec("10.00"),
	}))
	require.NoError(t, store.Upsert(ctx, &models.Position{
		UserID: alice, InstrumentID: "0050", DisplayName: "Yuanta ETF",
		QuantityHeld: 2, AverageCost: dec("120.00"),
	}))
	require.NoError(t, store.Upsert(ctx, &models.Position{
		UserID: bob, InstrumentID: "2330", DisplayName: "TSMC",
		QuantityHeld: 3, AverageCost: dec("11.00"),
	}))

	positions, err := store.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, positions, 2)

	positions, err = store.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, positions)
}
