package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SkipReason string

const (
	SkipNotFound      SkipReason = "not_found"
	SkipOutOfStock    SkipReason = "out_of_stock"
	SkipPartialFill   SkipReason = "partial_fill"
	SkipRaceCondition SkipReason = "race_condition"
)

// ItemOverride restricts a placement to one cart product. Quantity <= 0
// means the cart quantity is used.
type ItemOverride struct {
	ProductID int64
	Quantity  int
}

type PlaceOrderRequest struct {
	ShopkeeperID   int64
	Items          []ItemOverride
	IdempotencyKey string
}

// SkipEntry explains why a requested quantity was not, or not fully, ordered.
// Requested, Available and Fulfilled are meaningful depending on Reason.
type SkipEntry struct {
	ProductID int64
	Reason    SkipReason
	Requested int
	Available int
	Fulfilled int
}

type PlacedOrder struct {
	OrderID       int64
	DistributorID int64
	TotalAmount   decimal.Decimal
	ItemsCount    int
	CreatedAt     time.Time
}

type Placement struct {
	Orders  []PlacedOrder
	Skipped []SkipEntry
}
