package enums

import "fmt"

// StockMovementKind classifies a stock ledger mutation.
type StockMovementKind string

const (
	StockMovementKindAdjustment StockMovementKind = "adjustment"
	StockMovementKindReserve    StockMovementKind = "reserve"
	StockMovementKindRelease    StockMovementKind = "release"
	StockMovementKindCommit     StockMovementKind = "commit"
)

var validStockMovementKinds = []StockMovementKind{
	StockMovementKindAdjustment,
	StockMovementKindReserve,
	StockMovementKindRelease,
	StockMovementKindCommit,
}

// String implements fmt.Stringer.
func (k StockMovementKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known StockMovementKind.
func (k StockMovementKind) IsValid() bool {
	for _, candidate := range validStockMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseStockMovementKind converts raw input into a StockMovementKind.
func ParseStockMovementKind(value string) (StockMovementKind, error) {
	for _, candidate := range validStockMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement kind %q", value)
}
