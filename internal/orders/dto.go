package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// CreateOrderInput is the validated payload to place an order.
type CreateOrderInput struct {
	CustomerRef string
	Lines       []CreateOrderLineInput
}

// CreateOrderLineInput is one product demand within a new order.
type CreateOrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderDTO is the API view of an order with its lines.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	CustomerRef string            `json:"customer_ref"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Lines       []OrderLineDTO    `json:"lines"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// OrderLineDTO is the API view of one order line. WarehouseID is null when
// best-effort allocation left the line unreserved.
type OrderLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID *uuid.UUID      `json:"warehouse_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ListOrdersInput filters and paginates the order listing.
type ListOrdersInput struct {
	Status      string
	CustomerRef string
	Limit       int
	Cursor      string
}

// OrderListResult is one page of orders plus the cursor for the next.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		CustomerRef: order.CustomerRef,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Lines:       make([]OrderLineDTO, 0, len(order.Lines)),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	for _, line := range order.Lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ID:          line.ID,
			ProductID:   line.ProductID,
			WarehouseID: line.WarehouseID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}
	return dto
}
