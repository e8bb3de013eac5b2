package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

const orderNumberLength = 8

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productReader interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes order placement and lifecycle transitions.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderListResult, error)
	TransitionOrder(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	db       txRunner
	repo     Repository
	products productReader
	ledger   inventory.Ledger
	metrics  *metrics.StockMetrics
	logger   *logger.Logger
}

// NewService constructs an orders service instance.
func NewService(dbRunner txRunner, repo Repository, products productReader, ledger inventory.Ledger, sm *metrics.StockMetrics, logg *logger.Logger) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:       dbRunner,
		repo:     repo,
		products: products,
		ledger:   ledger,
		metrics:  sm,
		logger:   logg,
	}, nil
}

// CreateOrder snapshots prices, totals the lines, and reserves stock best
// effort: a line no single warehouse can cover is stored unreserved rather
// than failing the order.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	customerRef := strings.TrimSpace(input.CustomerRef)
	if customerRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_ref is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an order needs at least one line")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "every line needs a product id")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}

	var order *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		order = &models.Order{
			ID:          uuid.New(),
			OrderNumber: newOrderNumber(),
			CustomerRef: customerRef,
			Status:      enums.OrderStatusPending,
			TotalAmount: decimal.Zero,
		}

		for _, line := range input.Lines {
			product, err := s.products.FindProductByID(ctx, line.ProductID)
			if err != nil {
				if db.IsRecordNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": line.ProductID.String()})
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, "product is not active").
					WithDetails(map[string]any{"product_id": line.ProductID.String()})
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			orderLine := models.OrderLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				LineTotal: lineTotal,
			}

			warehouseID, allocErr := s.ledger.AllocateLine(ctx, tx, line.ProductID, line.Quantity, &order.ID)
			switch {
			case allocErr == nil:
				orderLine.WarehouseID = &warehouseID
			case pkgerrors.HasCode(allocErr, pkgerrors.CodeInsufficientStock):
				// Best effort: the line stays unreserved.
			default:
				return allocErr
			}

			order.Lines = append(order.Lines, orderLine)
			order.TotalAmount = order.TotalAmount.Add(lineTotal)
		}

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithOrderNumber(ctx, order.OrderNumber)
	s.logger.Info(logCtx, "order created")
	return toOrderDTO(order), nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	return toOrderDTO(order), nil
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	order, err := s.repo.FindByOrderNumber(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		return nil, orderLookupError(err)
	}
	return toOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderListResult, error) {
	if input.Status != "" {
		if _, err := enums.ParseOrderStatus(input.Status); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
		}
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	rows, err := s.repo.List(ctx, input, cursor, pagination.LimitWithBuffer(input.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}

	result := &OrderListResult{Orders: make([]OrderDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Orders = append(result.Orders, *toOrderDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// TransitionOrder moves an order through its lifecycle. The status write and
// every ledger side effect share one transaction, so a drifted reservation
// rolls the whole transition back.
func (s *service) TransitionOrder(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var result *models.Order
	changed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}

		if order.Status == target {
			result = order
			return nil
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
		}

		switch target {
		case enums.OrderStatusCancelled:
			if err := s.releaseLines(ctx, tx, order); err != nil {
				return err
			}
		case enums.OrderStatusDelivered:
			if err := s.commitLines(ctx, tx, order); err != nil {
				return err
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
		}
		order.Status = target
		result = order
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.IncTransition(string(target))
		logCtx := s.logger.WithFields(ctx, map[string]any{
			"order_number": result.OrderNumber,
			"status":       string(result.Status),
		})
		s.logger.Info(logCtx, "order transitioned")
	}
	return toOrderDTO(result), nil
}

// releaseLines returns every reserved line to the available pool. Unreserved
// lines have nothing to give back.
func (s *service) releaseLines(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, line := range order.Lines {
		if line.WarehouseID == nil {
			continue
		}
		if err := s.ledger.Release(ctx, tx, line.ProductID, *line.WarehouseID, line.Quantity, &order.ID, "order cancelled"); err != nil {
			return err
		}
	}
	return nil
}

// commitLines consumes every line's reservation. A line that was never
// reserved, or whose reservation has drifted, aborts the delivery.
func (s *service) commitLines(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, line := range order.Lines {
		if line.WarehouseID == nil {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "order has an unreserved line").
				WithDetails(map[string]any{
					"product_id": line.ProductID.String(),
					"requested":  line.Quantity,
				})
		}
		if err := s.ledger.Commit(ctx, tx, line.ProductID, *line.WarehouseID, line.Quantity, &order.ID); err != nil {
			return err
		}
	}
	return nil
}

// newOrderNumber derives a short human-readable reference from a fresh uuid.
func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:orderNumberLength])
}

func orderLookupError(err error) error {
	if db.IsRecordNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
}
