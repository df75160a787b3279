package domain

import "github.com/shopspring/decimal"

// CartLine is a request for future fulfillment, not a reservation.
type CartLine struct {
	ID           int64
	ShopkeeperID int64
	ProductID    int64
	Quantity     int
}

type CartEntry struct {
	CartLine
	ProductName string
	Price       decimal.Decimal
	Stock       int
	LineTotal   decimal.Decimal
}

type Cart struct {
	ShopkeeperID  int64
	Lines         []CartEntry
	TotalQuantity int
	Subtotal      decimal.Decimal
}
