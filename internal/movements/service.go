package movements

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Service records ledger mutations as immutable audit rows.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordMovementInput) (*models.StockMovement, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error)
	ListByEntry(ctx context.Context, productID, warehouseID uuid.UUID) ([]models.StockMovement, error)
}

type service struct {
	repo Repository
}

// RecordMovementInput captures the immutable data a movement row requires.
type RecordMovementInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Kind        enums.StockMovementKind
	Delta       int
	Reason      string
	OrderID     *uuid.UUID
}

// NewService wires a movements service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordMovementInput) (*models.StockMovement, error) {
	if input.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	if input.WarehouseID == uuid.Nil {
		return nil, fmt.Errorf("warehouse id is required")
	}
	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("invalid stock movement kind %q", input.Kind)
	}

	movement := &models.StockMovement{
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		Kind:        input.Kind,
		Delta:       input.Delta,
		Reason:      input.Reason,
		OrderID:     input.OrderID,
	}

	if err := s.repo.WithTx(tx).Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

func (s *service) ListByEntry(ctx context.Context, productID, warehouseID uuid.UUID) ([]models.StockMovement, error) {
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, fmt.Errorf("product id and warehouse id are required")
	}
	return s.repo.ListByEntry(ctx, productID, warehouseID)
}
