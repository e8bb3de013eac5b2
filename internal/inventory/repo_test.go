package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	// Each sqlite connection would get its own in-memory database, so pin
	// the pool to one connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Warehouse{},
		&models.StockEntry{},
		&models.StockMovement{},
	))
	return db
}

func seedEntry(t *testing.T, db *gorm.DB, quantity, reserved, threshold int) *models.StockEntry {
	t.Helper()

	entry := &models.StockEntry{
		ProductID:         uuid.New(),
		WarehouseID:       uuid.New(),
		Quantity:          quantity,
		ReservedQuantity:  reserved,
		LowStockThreshold: threshold,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestAddQuantityGuards(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, 10, 4, 5)

	ok, err := repo.AddQuantity(ctx, entry.ProductID, entry.WarehouseID, -6)
	require.NoError(t, err)
	assert.True(t, ok)

	// Cutting below the reservation must be refused.
	ok, err = repo.AddQuantity(ctx, entry.ProductID, entry.WarehouseID, -1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.Find(ctx, entry.ProductID, entry.WarehouseID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	assert.Equal(t, 4, got.ReservedQuantity)
}

func TestAddReservedGuards(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, 10, 0, 5)

	ok, err := repo.AddReserved(ctx, entry.ProductID, entry.WarehouseID, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AddReserved(ctx, entry.ProductID, entry.WarehouseID, 4)
	require.NoError(t, err)
	assert.False(t, ok, "reserving past the available balance must fail")

	ok, err = repo.AddReserved(ctx, entry.ProductID, entry.WarehouseID, 3)
	require.NoError(t, err)
	assert.True(t, ok, "reserving exactly the remaining balance must succeed")

	got, err := repo.Find(ctx, entry.ProductID, entry.WarehouseID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.ReservedQuantity)
	assert.Equal(t, 0, got.AvailableQuantity())
}

func TestClampReserved(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, 100, 30, 10)

	ok, err := repo.ClampReserved(ctx, entry.ProductID, entry.WarehouseID, 50)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Find(ctx, entry.ProductID, entry.WarehouseID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ReservedQuantity, "over-release clamps at zero")
	assert.Equal(t, 100, got.Quantity)

	ok, err = repo.ClampReserved(ctx, uuid.New(), uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeReserved(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, 10, 4, 5)

	ok, err := repo.ConsumeReserved(ctx, entry.ProductID, entry.WarehouseID, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Find(ctx, entry.ProductID, entry.WarehouseID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	assert.Equal(t, 0, got.ReservedQuantity)
	assert.Equal(t, 6, got.AvailableQuantity(), "commit leaves available unchanged")

	ok, err = repo.ConsumeReserved(ctx, entry.ProductID, entry.WarehouseID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to consume")
}

func TestListCandidatesOrdering(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	warehouses := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	quantities := []int{3, 20, 20}
	for i, warehouseID := range warehouses {
		require.NoError(t, db.Create(&models.StockEntry{
			ProductID:         productID,
			WarehouseID:       warehouseID,
			Quantity:          quantities[i],
			LowStockThreshold: 10,
		}).Error)
	}

	candidates, err := repo.ListCandidates(ctx, productID, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2, "the 3-unit entry cannot cover 5")

	assert.True(t, candidates[0].WarehouseID.String() < candidates[1].WarehouseID.String(),
		"candidates must come back in warehouse id order")
}

func TestListLowStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := &models.Product{SKU: "SKU-LOW-1", Name: "Widget"}
	require.NoError(t, db.Create(product).Error)
	warehouse := &models.Warehouse{Name: "Main", Address: "1 Dock St"}
	require.NoError(t, db.Create(warehouse).Error)

	// available 5 <= threshold 5: flagged.
	require.NoError(t, db.Create(&models.StockEntry{
		ProductID:         product.ID,
		WarehouseID:       warehouse.ID,
		Quantity:          8,
		ReservedQuantity:  3,
		LowStockThreshold: 5,
	}).Error)

	healthyProduct := &models.Product{SKU: "SKU-OK-1", Name: "Gadget"}
	require.NoError(t, db.Create(healthyProduct).Error)
	require.NoError(t, db.Create(&models.StockEntry{
		ProductID:         healthyProduct.ID,
		WarehouseID:       warehouse.ID,
		Quantity:          50,
		ReservedQuantity:  3,
		LowStockThreshold: 5,
	}).Error)

	rows, err := repo.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, product.ID, rows[0].ProductID)
	assert.Equal(t, "Widget", rows[0].ProductName)
	assert.Equal(t, "Main", rows[0].WarehouseName)
	assert.Equal(t, 5, rows[0].AvailableQuantity)
}
