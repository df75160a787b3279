package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID            int64
	DistributorID int64
	ProductName   string
	Description   string
	Price         decimal.Decimal
	Quantity      int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StockSnapshot is an inventory row as read under an exclusive lock.
type StockSnapshot struct {
	ProductID     int64
	DistributorID int64
	Price         decimal.Decimal
	Stock         int
	IsActive      bool
}
