package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

type OrderService struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(db port.DatabaseRepository, cache port.CacheRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:     db,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// PlaceOrder converts as much of the shopkeeper's cart as stock allows into
// one order per distributor. On ErrNoItemsToOrder the returned placement
// still carries the skip list.
func (s *OrderService) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (placement *domain.Placement, err error) {
	if req.ShopkeeperID <= 0 {
		return nil, ErrUnauthorized
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return nil, fmt.Errorf("%w: product_id must be positive", ErrInvalidRequest)
		}
	}

	if req.IdempotencyKey != "" {
		key := fmt.Sprintf("order:%d:%s", req.ShopkeeperID, req.IdempotencyKey)

		ok, setErr := s.cache.SetIdempotency(ctx, key)
		if setErr != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", setErr)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}

		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); releaseErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(releaseErr))
			}
		}()
	}

	placement, err = s.placeOrder(ctx, req)
	if err != nil && !isExpected(err) {
		s.logger.Error("place order failed",
			zap.Int64("shopkeeper_id", req.ShopkeeperID),
			zap.Int("override_items", len(req.Items)),
			zap.Error(err),
		)
	}
	return placement, err
}

func (s *OrderService) placeOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.Placement, error) {
	overrides := make(map[int64]int, len(req.Items))
	filter := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if _, seen := overrides[item.ProductID]; !seen {
			filter = append(filter, item.ProductID)
		}
		overrides[item.ProductID] = item.Quantity
	}

	placement := &domain.Placement{
		Orders:  []domain.PlacedOrder{},
		Skipped: []domain.SkipEntry{},
	}

	err := s.db.WithinTx(ctx, func(tx port.OrderTx) error {
		lines, err := tx.ReadCart(ctx, req.ShopkeeperID, filter)
		if err != nil {
			return fmt.Errorf("read cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		productIDs := make([]int64, 0, len(lines))
		for _, line := range lines {
			productIDs = append(productIDs, line.ProductID)
		}

		stock, err := tx.LockInventory(ctx, productIDs)
		if err != nil {
			return fmt.Errorf("lock inventory: %w", err)
		}

		batches := newDistributorBatches()
		for _, line := range lines {
			desired := desiredQuantity(line, overrides)

			snap, ok := stock[line.ProductID]
			if !ok {
				placement.Skipped = append(placement.Skipped, domain.SkipEntry{
					ProductID: line.ProductID,
					Reason:    domain.SkipNotFound,
				})
				continue
			}
			if snap.Stock <= 0 {
				placement.Skipped = append(placement.Skipped, domain.SkipEntry{
					ProductID: line.ProductID,
					Reason:    domain.SkipOutOfStock,
					Requested: desired,
					Available: 0,
				})
				continue
			}

			fulfilled := min(desired, snap.Stock)

			reserved, err := tx.DecrementStock(ctx, line.ProductID, fulfilled)
			if err != nil {
				return fmt.Errorf("reserve stock for product %d: %w", line.ProductID, err)
			}
			if !reserved {
				placement.Skipped = append(placement.Skipped, domain.SkipEntry{
					ProductID: line.ProductID,
					Reason:    domain.SkipRaceCondition,
					Requested: desired,
					Available: 0,
				})
				continue
			}

			if fulfilled < desired {
				placement.Skipped = append(placement.Skipped, domain.SkipEntry{
					ProductID: line.ProductID,
					Reason:    domain.SkipPartialFill,
					Requested: desired,
					Available: snap.Stock,
					Fulfilled: fulfilled,
				})
			}

			batches.add(snap.DistributorID, domain.OrderItem{
				ProductID: line.ProductID,
				Quantity:  fulfilled,
				Price:     snap.Price,
			})
		}

		if batches.empty() {
			return ErrNoItemsToOrder
		}

		createdAt := s.now()
		ordered := make([]int64, 0, len(lines))

		for _, batch := range batches.list {
			order := &domain.Order{
				ShopkeeperID:  req.ShopkeeperID,
				DistributorID: batch.distributorID,
				TotalAmount:   batch.total(),
				Status:        domain.OrderStatusPending,
				CreatedAt:     createdAt,
				UpdatedAt:     createdAt,
			}

			orderID, err := tx.CreateOrder(ctx, order)
			if err != nil {
				return fmt.Errorf("create order for distributor %d: %w", batch.distributorID, err)
			}

			for _, item := range batch.items {
				item.OrderID = orderID
				if err := tx.AddOrderItem(ctx, item); err != nil {
					return fmt.Errorf("add item %d to order %d: %w", item.ProductID, orderID, err)
				}
				ordered = append(ordered, item.ProductID)
			}

			placement.Orders = append(placement.Orders, domain.PlacedOrder{
				OrderID:       orderID,
				DistributorID: batch.distributorID,
				TotalAmount:   order.TotalAmount,
				ItemsCount:    len(batch.items),
				CreatedAt:     createdAt,
			})
		}

		if err := tx.DeleteCartLines(ctx, req.ShopkeeperID, ordered); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})

	switch {
	case err == nil:
		return placement, nil
	case errors.Is(err, ErrNoItemsToOrder):
		return &domain.Placement{Orders: []domain.PlacedOrder{}, Skipped: placement.Skipped}, err
	default:
		return nil, err
	}
}

// ListOrders returns the caller's orders: shopkeepers see what they placed,
// distributors see what was placed with them.
func (s *OrderService) ListOrders(ctx context.Context, who domain.Identity) ([]domain.Order, error) {
	if !who.Valid() {
		return nil, ErrUnauthorized
	}

	orders, err := s.db.ListOrders(ctx, who)
	if err != nil {
		s.logger.Error("list orders failed", zap.Int64("user_id", who.UserID), zap.String("role", string(who.Role)), zap.Error(err))
		return nil, err
	}
	return orders, nil
}

func desiredQuantity(line domain.CartLine, overrides map[int64]int) int {
	qty := line.Quantity
	if override, ok := overrides[line.ProductID]; ok && override > 0 {
		qty = override
	}
	return max(qty, 1)
}

func isExpected(err error) bool {
	for _, known := range []error{
		ErrUnauthorized, ErrInvalidRequest, ErrDuplicateRequest, ErrEmptyCart, ErrNoItemsToOrder,
		ErrInsufficientStock, ErrProductNotFound, ErrProductUnavailable, ErrCartLineNotFound,
		ErrOrderNotFound, ErrInvalidStatus, ErrForbidden, ErrOrderTerminal, ErrInvalidTransition,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

type distributorBatch struct {
	distributorID int64
	items         []domain.OrderItem
}

func (b *distributorBatch) total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

// distributorBatches groups reserved items per distributor, keeping the order
// in which distributors were first seen.
type distributorBatches struct {
	byID map[int64]*distributorBatch
	list []*distributorBatch
}

func newDistributorBatches() *distributorBatches {
	return &distributorBatches{byID: make(map[int64]*distributorBatch)}
}

func (d *distributorBatches) add(distributorID int64, item domain.OrderItem) {
	batch, ok := d.byID[distributorID]
	if !ok {
		batch = &distributorBatch{distributorID: distributorID}
		d.byID[distributorID] = batch
		d.list = append(d.list, batch)
	}
	batch.items = append(batch.items, item)
}

func (d *distributorBatches) empty() bool {
	return len(d.list) == 0
}
