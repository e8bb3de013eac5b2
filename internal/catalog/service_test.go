package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

func newTestCatalog(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Warehouse{}))

	logg := logger.New(logger.Options{ServiceName: "catalog-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), logg)
	require.NoError(t, err)
	return svc, db
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	dto, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:      "SKU-001",
		Name:     "Steel Bolt M8",
		Brand:    "Fastenal",
		Category: "hardware",
		Price:    decimal.RequireFromString("0.45"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dto.ID)
	assert.True(t, dto.IsActive)
	assert.True(t, dto.Price.Equal(decimal.RequireFromString("0.45")))
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	input := CreateProductInput{SKU: "SKU-DUP", Name: "First", Price: decimal.NewFromInt(3)}
	_, err := svc.CreateProduct(ctx, input)
	require.NoError(t, err)

	input.Name = "Second"
	_, err = svc.CreateProduct(ctx, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{SKU: " ", Name: "No SKU"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU:   "SKU-NEG",
		Name:  "Negative",
		Price: decimal.NewFromInt(-1),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:   "SKU-UPD",
		Name:  "Before",
		Price: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	name := "After"
	price := decimal.RequireFromString("12.50")
	active := false
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{
		Name:     &name,
		Price:    &price,
		IsActive: &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.True(t, updated.Price.Equal(price))
	assert.False(t, updated.IsActive)
	assert.Equal(t, "SKU-UPD", updated.SKU, "sku is immutable")
}

func TestUpdateProductNotFound(t *testing.T) {
	svc, _ := newTestCatalog(t)

	name := "Ghost"
	_, err := svc.UpdateProduct(context.Background(), uuid.New(), UpdateProductInput{Name: &name})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListProductsFiltersAndPaginates(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateProduct(ctx, CreateProductInput{
			SKU:      "SKU-HW-" + uuid.NewString()[:8],
			Name:     "Hammer",
			Category: "hardware",
			Price:    decimal.NewFromInt(20),
		})
		require.NoError(t, err)
	}
	inactive := false
	_, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:      "SKU-OFF",
		Name:     "Retired Hammer",
		Category: "hardware",
		Price:    decimal.NewFromInt(20),
		IsActive: &inactive,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU:      "SKU-FOOD",
		Name:     "Canned Soup",
		Category: "grocery",
		Price:    decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	page, err := svc.ListProducts(ctx, ListProductsInput{Category: "hardware", ActiveOnly: true, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListProducts(ctx, ListProductsInput{
		Category:   "hardware",
		ActiveOnly: true,
		Limit:      2,
		Cursor:     page.NextCursor,
	})
	require.NoError(t, err)
	assert.Len(t, rest.Products, 1)
	assert.Empty(t, rest.NextCursor)

	search, err := svc.ListProducts(ctx, ListProductsInput{Search: "soup"})
	require.NoError(t, err)
	require.Len(t, search.Products, 1)
	assert.Equal(t, "SKU-FOOD", search.Products[0].SKU)
}

func TestWarehouseLifecycle(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	created, err := svc.CreateWarehouse(ctx, CreateWarehouseInput{
		Name:     "North Dock",
		Address:  "18 Pier Rd",
		Capacity: 5000,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	active := false
	updated, err := svc.UpdateWarehouse(ctx, created.ID, UpdateWarehouseInput{IsActive: &active})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	all, err := svc.ListWarehouses(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	activeOnly, err := svc.ListWarehouses(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, activeOnly)
}

func TestWarehouseValidation(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateWarehouse(ctx, CreateWarehouseInput{Name: "  "})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.GetWarehouse(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
