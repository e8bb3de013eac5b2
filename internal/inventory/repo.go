package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
)

// Repository provides guarded access to stock entry rows. Every mutation is a
// single conditional UPDATE so that concurrent callers serialize on the row
// and can never drive the counters negative or reserve past the total.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockEntry, error)
	Create(ctx context.Context, entry *models.StockEntry) error
	AddQuantity(ctx context.Context, productID, warehouseID uuid.UUID, delta int) (bool, error)
	AddReserved(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (bool, error)
	ClampReserved(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (bool, error)
	ConsumeReserved(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (bool, error)
	ListCandidates(ctx context.Context, productID uuid.UUID, qty int) ([]models.StockEntry, error)
	ListEntries(ctx context.Context) ([]models.StockEntry, error)
	ListLowStock(ctx context.Context) ([]LowStockEntry, error)
}

// LowStockEntry joins a flagged stock entry with catalog display names.
type LowStockEntry struct {
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	WarehouseName     string    `json:"warehouse_name"`
	Quantity          int       `json:"quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock entry repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockEntry, error) {
	var entry models.StockEntry
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Create(ctx context.Context, entry *models.StockEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// AddQuantity applies a signed delta to the total quantity. The guard keeps
// the total at or above both zero and the current reservation.
func (r *repository) AddQuantity(ctx context.Context, productID, warehouseID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET quantity = quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ?
		  AND quantity + ? >= reserved_quantity
		  AND quantity + ? >= 0
	`, delta, productID, warehouseID, delta, delta)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AddReserved(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET reserved_quantity = reserved_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ?
		  AND quantity - reserved_quantity >= ?
	`, qty, productID, warehouseID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClampReserved lowers the reservation by qty, clamping at zero instead of
// going negative when the request exceeds the current reservation.
func (r *repository) ClampReserved(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET reserved_quantity = CASE
				WHEN reserved_quantity > ? THEN reserved_quantity - ?
				ELSE 0
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ?
	`, qty, qty, productID, warehouseID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeReserved converts a reservation into a permanent deduction: both
// counters drop together so available quantity is unchanged by a commit.
func (r *repository) ConsumeReserved(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_entries
		SET quantity = quantity - ?,
			reserved_quantity = reserved_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ?
		  AND reserved_quantity >= ?
	`, qty, qty, productID, warehouseID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListCandidates returns entries able to cover qty for the product, ordered
// by warehouse id so allocation is deterministic.
func (r *repository) ListCandidates(ctx context.Context, productID uuid.UUID, qty int) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity - reserved_quantity >= ?", productID, qty).
		Order("warehouse_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListEntries(ctx context.Context) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	err := r.db.WithContext(ctx).
		Order("product_id ASC, warehouse_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListLowStock(ctx context.Context) ([]LowStockEntry, error) {
	var rows []LowStockEntry
	err := r.db.WithContext(ctx).Raw(`
		SELECT se.product_id,
		       p.name AS product_name,
		       se.warehouse_id,
		       w.name AS warehouse_name,
		       se.quantity,
		       se.reserved_quantity,
		       se.quantity - se.reserved_quantity AS available_quantity,
		       se.low_stock_threshold
		FROM stock_entries se
		JOIN products p ON p.id = se.product_id
		JOIN warehouses w ON w.id = se.warehouse_id
		WHERE se.quantity - se.reserved_quantity <= se.low_stock_threshold
		ORDER BY p.name ASC, w.name ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IsNotFound reports whether err is gorm's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
