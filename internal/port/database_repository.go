package port

import (
	"context"
	"time"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
)

type DatabaseRepository interface {
	Transactor

	// GetCart returns the shopkeeper's cart joined with current product data
	GetCart(ctx context.Context, shopkeeperID int64) (*domain.Cart, error)

	// ListOrders returns the orders visible to the caller, newest first, with items
	ListOrders(ctx context.Context, who domain.Identity) ([]domain.Order, error)

	// GetInventory retrieves an inventory row by product ID, nil if absent
	GetInventory(ctx context.Context, productID int64) (*domain.InventoryItem, error)
}

type Transactor interface {
	// WithinTx runs fn in a single transaction: commit when fn returns nil,
	// rollback on error or panic
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
}

// OrderTx is the set of statements available inside one open transaction.
type OrderTx interface {
	// ReadCart locks and returns the shopkeeper's cart lines ordered by ID,
	// restricted to productIDs when it is non-empty
	ReadCart(ctx context.Context, shopkeeperID int64, productIDs []int64) ([]domain.CartLine, error)

	// LockInventory reads inventory rows with an exclusive lock, keyed by product ID
	LockInventory(ctx context.Context, productIDs []int64) (map[int64]domain.StockSnapshot, error)

	// DecrementStock subtracts amount only if stock is still >= amount, returns false otherwise
	DecrementStock(ctx context.Context, productID int64, amount int) (bool, error)

	// IncrementStock returns units to stock
	IncrementStock(ctx context.Context, productID int64, amount int) error

	// CreateOrder inserts an order header and returns its ID
	CreateOrder(ctx context.Context, order *domain.Order) (int64, error)

	AddOrderItem(ctx context.Context, item domain.OrderItem) error

	DeleteCartLines(ctx context.Context, shopkeeperID int64, productIDs []int64) error

	// GetCartLine locks and returns one cart line, nil if absent
	GetCartLine(ctx context.Context, shopkeeperID, productID int64) (*domain.CartLine, error)

	// SaveCartLine inserts the line when ID is zero, updates its quantity otherwise
	SaveCartLine(ctx context.Context, line *domain.CartLine) error

	// LockOrder reads an order header with an exclusive lock, nil if absent
	LockOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)

	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, at time.Time) error
}
