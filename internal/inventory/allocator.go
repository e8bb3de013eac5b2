package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

// AllocateLine picks the first warehouse, in warehouse id order, whose entry
// can cover qty, and reserves there. Candidates that lose a race to another
// reservation are skipped and the next one is tried.
func (s *service) AllocateLine(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, orderID *uuid.UUID) (uuid.UUID, error) {
	if qty <= 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
	}
	repo := s.repo.WithTx(tx)
	candidates, err := repo.ListCandidates(ctx, productID, qty)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list stock candidates")
	}
	for _, candidate := range candidates {
		reserveErr := s.Reserve(ctx, tx, productID, candidate.WarehouseID, qty, orderID)
		if reserveErr == nil {
			return candidate.WarehouseID, nil
		}
		if pkgerrors.HasCode(reserveErr, pkgerrors.CodeInsufficientStock) {
			continue
		}
		return uuid.Nil, reserveErr
	}
	s.metrics.IncShortfall("allocate")
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "no warehouse can cover the requested quantity").
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"requested":  qty,
		})
}
