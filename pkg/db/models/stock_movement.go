package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// StockMovement is an append-only audit record of a stock ledger mutation.
type StockMovement struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	WarehouseID uuid.UUID               `gorm:"column:warehouse_id;type:uuid;not null;index"`
	Kind        enums.StockMovementKind `gorm:"column:kind;type:text;not null"`
	Delta       int                     `gorm:"column:delta;not null"`
	Reason      string                  `gorm:"column:reason"`
	OrderID     *uuid.UUID              `gorm:"column:order_id;type:uuid;index"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
