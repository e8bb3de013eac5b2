package models

import (
	"time"

	"github.com/google/uuid"
)

// StockEntry tracks total and reserved units for one product at one warehouse.
// The composite key makes the (product, warehouse) pair unique; the row is the
// single contended resource in the system and every mutation serializes on it.
type StockEntry struct {
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	WarehouseID       uuid.UUID `gorm:"column:warehouse_id;type:uuid;primaryKey"`
	Quantity          int       `gorm:"column:quantity;not null;default:0"`
	ReservedQuantity  int       `gorm:"column:reserved_quantity;not null;default:0"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:10"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableQuantity is the sellable balance: total minus reserved.
func (e StockEntry) AvailableQuantity() int {
	return e.Quantity - e.ReservedQuantity
}

// IsLowStock reports whether the available balance has fallen to the threshold.
func (e StockEntry) IsLowStock() bool {
	return e.AvailableQuantity() <= e.LowStockThreshold
}
