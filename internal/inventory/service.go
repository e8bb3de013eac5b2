package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/movements"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Ledger exposes the stock mutations that must run inside a caller-owned
// transaction, so order workflows can combine them with their own writes.
type Ledger interface {
	Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.StockEntry, error)
	Reserve(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int, orderID *uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int, orderID *uuid.UUID, reason string) error
	Commit(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int, orderID *uuid.UUID) error
	AllocateLine(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, orderID *uuid.UUID) (uuid.UUID, error)
}

// Service is the request-facing surface of the stock ledger.
type Service interface {
	Ledger
	AdjustStock(ctx context.Context, input AdjustInput) (*models.StockEntry, error)
	GetEntry(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockEntry, error)
	ListEntries(ctx context.Context) ([]models.StockEntry, error)
	ListLowStock(ctx context.Context) ([]LowStockEntry, error)
	ListMovements(ctx context.Context, productID, warehouseID uuid.UUID) ([]models.StockMovement, error)
}

// AdjustInput is a signed manual correction to a stock entry.
type AdjustInput struct {
	ProductID         uuid.UUID
	WarehouseID       uuid.UUID
	Delta             int
	Reason            string
	LowStockThreshold *int
}

type service struct {
	db               txRunner
	repo             Repository
	movements        movements.Service
	metrics          *metrics.StockMetrics
	logger           *logger.Logger
	defaultThreshold int
}

// NewService wires the stock ledger service.
func NewService(db txRunner, repo Repository, mv movements.Service, sm *metrics.StockMetrics, logg *logger.Logger, defaultThreshold int) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if mv == nil {
		return nil, fmt.Errorf("movements service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if defaultThreshold < 0 {
		defaultThreshold = 0
	}
	return &service{
		db:               db,
		repo:             repo,
		movements:        mv,
		metrics:          sm,
		logger:           logg,
		defaultThreshold: defaultThreshold,
	}, nil
}

// AdjustStock applies a manual correction in its own transaction.
func (s *service) AdjustStock(ctx context.Context, input AdjustInput) (*models.StockEntry, error) {
	var entry *models.StockEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.Adjust(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Adjust moves the total quantity by a signed delta. A positive delta for a
// missing (product, warehouse) pair creates the entry; a negative delta can
// never cut below the reserved balance or below zero.
func (s *service) Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.StockEntry, error) {
	if input.ProductID == uuid.Nil || input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and warehouse id are required")
	}
	if input.Delta == 0 && input.LowStockThreshold == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}
	if input.LowStockThreshold != nil && *input.LowStockThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
	}

	repo := s.repo.WithTx(tx)

	if input.Delta != 0 {
		ok, err := repo.AddQuantity(ctx, input.ProductID, input.WarehouseID, input.Delta)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to adjust stock")
		}
		if !ok {
			created, err := s.createOnAdjust(ctx, repo, input)
			if err != nil {
				return nil, err
			}
			if !created {
				return nil, s.shortfallError(ctx, repo, input.ProductID, input.WarehouseID, input.Delta, "adjust")
			}
		}
		if _, err := s.movements.Record(ctx, tx, movements.RecordMovementInput{
			ProductID:   input.ProductID,
			WarehouseID: input.WarehouseID,
			Kind:        enums.StockMovementKindAdjustment,
			Delta:       input.Delta,
			Reason:      input.Reason,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record stock movement")
		}
	}

	if input.LowStockThreshold != nil {
		err := tx.WithContext(ctx).Model(&models.StockEntry{}).
			Where("product_id = ? AND warehouse_id = ?", input.ProductID, input.WarehouseID).
			Update("low_stock_threshold", *input.LowStockThreshold).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update low stock threshold")
		}
	}

	entry, err := repo.Find(ctx, input.ProductID, input.WarehouseID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load stock entry")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"product_id":   input.ProductID.String(),
		"warehouse_id": input.WarehouseID.String(),
		"delta":        input.Delta,
		"quantity":     entry.Quantity,
	})
	s.logger.Info(logCtx, "stock adjusted")
	return entry, nil
}

// createOnAdjust seeds a fresh entry when a positive delta targets a missing
// row. Returns false when the row exists and the guard rejected the delta.
func (s *service) createOnAdjust(ctx context.Context, repo Repository, input AdjustInput) (bool, error) {
	_, err := repo.Find(ctx, input.ProductID, input.WarehouseID)
	if err == nil {
		return false, nil
	}
	if !IsNotFound(err) {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load stock entry")
	}
	if input.Delta < 0 {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
	}

	threshold := s.defaultThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	entry := &models.StockEntry{
		ProductID:         input.ProductID,
		WarehouseID:       input.WarehouseID,
		Quantity:          input.Delta,
		LowStockThreshold: threshold,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create stock entry")
	}
	return true, nil
}

// Reserve places a hold on available units. The guard refuses a reservation
// that would exceed quantity minus the existing reservation.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int, orderID *uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
	}
	repo := s.repo.WithTx(tx)
	ok, err := repo.AddReserved(ctx, productID, warehouseID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reserve stock")
	}
	if !ok {
		s.metrics.IncReservation("insufficient")
		return s.shortfallError(ctx, repo, productID, warehouseID, qty, "reserve")
	}
	if _, err := s.movements.Record(ctx, tx, movements.RecordMovementInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Kind:        enums.StockMovementKindReserve,
		Delta:       qty,
		OrderID:     orderID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record stock movement")
	}
	s.metrics.IncReservation("reserved")
	return nil
}

// Release returns held units to the available pool. Releasing more than is
// currently held clamps the reservation to zero rather than failing, so a
// cancellation after a manual correction still settles the row.
func (s *service) Release(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int, orderID *uuid.UUID, reason string) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}
	repo := s.repo.WithTx(tx)
	ok, err := repo.ClampReserved(ctx, productID, warehouseID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to release stock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
	}
	if _, err := s.movements.Record(ctx, tx, movements.RecordMovementInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Kind:        enums.StockMovementKindRelease,
		Delta:       -qty,
		Reason:      reason,
		OrderID:     orderID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record stock movement")
	}
	return nil
}

// Commit converts a reservation into a permanent deduction. Both counters
// drop together, so the available balance does not change.
func (s *service) Commit(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int, orderID *uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "commit quantity must be positive")
	}
	repo := s.repo.WithTx(tx)
	ok, err := repo.ConsumeReserved(ctx, productID, warehouseID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to commit stock")
	}
	if !ok {
		return s.shortfallError(ctx, repo, productID, warehouseID, qty, "commit")
	}
	if _, err := s.movements.Record(ctx, tx, movements.RecordMovementInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Kind:        enums.StockMovementKindCommit,
		Delta:       -qty,
		OrderID:     orderID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record stock movement")
	}
	return nil
}

func (s *service) GetEntry(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockEntry, error) {
	entry, err := s.repo.Find(ctx, productID, warehouseID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load stock entry")
	}
	return entry, nil
}

func (s *service) ListEntries(ctx context.Context) ([]models.StockEntry, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list stock entries")
	}
	return entries, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]LowStockEntry, error) {
	rows, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list low stock entries")
	}
	return rows, nil
}

// ListMovements returns the audit trail for a ledger entry, oldest first.
func (s *service) ListMovements(ctx context.Context, productID, warehouseID uuid.UUID) ([]models.StockMovement, error) {
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and warehouse id are required")
	}
	rows, err := s.movements.ListByEntry(ctx, productID, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list stock movements")
	}
	return rows, nil
}

// shortfallError re-reads the row to tell a missing entry apart from an
// insufficient balance after a guarded update matched nothing.
func (s *service) shortfallError(ctx context.Context, repo Repository, productID, warehouseID uuid.UUID, qty int, operation string) error {
	entry, err := repo.Find(ctx, productID, warehouseID)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load stock entry")
	}
	s.metrics.IncShortfall(operation)
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id":   productID.String(),
			"warehouse_id": warehouseID.String(),
			"requested":    qty,
			"available":    entry.AvailableQuantity(),
		})
}
