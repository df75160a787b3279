package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

// UpdateStatus moves an order along its lifecycle. Distributors may apply any
// allowed transition; shopkeepers may only confirm delivery of a paid or
// shipped order. Cancelling with restock returns the ordered units to stock.
func (s *OrderService) UpdateStatus(ctx context.Context, who domain.Identity, orderID int64, status string, restock bool) (*domain.Order, error) {
	if !who.Valid() {
		return nil, ErrUnauthorized
	}
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order_id must be positive", ErrInvalidRequest)
	}
	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	var updated *domain.Order
	err := s.db.WithinTx(ctx, func(tx port.OrderTx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if order == nil {
			return ErrOrderNotFound
		}

		if who.IsDistributor() && order.DistributorID != who.UserID {
			return ErrForbidden
		}
		if who.IsShopkeeper() && order.ShopkeeperID != who.UserID {
			return ErrForbidden
		}

		current := order.Status
		if current.IsTerminal() {
			return fmt.Errorf("%w: %s", ErrOrderTerminal, current)
		}

		if who.IsDistributor() {
			if !current.CanTransitionTo(next) {
				return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, next)
			}
		} else {
			delivered := next == domain.OrderStatusDelivered &&
				(current == domain.OrderStatusShipped || current == domain.OrderStatusPaid)
			if !delivered {
				return fmt.Errorf("%w: shopkeeper cannot move %s to %s", ErrForbidden, current, next)
			}
		}

		if next == domain.OrderStatusCancelled && restock {
			items, err := tx.OrderItems(ctx, orderID)
			if err != nil {
				return fmt.Errorf("read order items: %w", err)
			}
			for _, item := range items {
				if err := tx.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("restock product %d: %w", item.ProductID, err)
				}
			}
		}

		at := s.now()
		if err := tx.UpdateOrderStatus(ctx, orderID, next, at); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		order.Status = next
		order.UpdatedAt = at
		updated = order
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			s.logger.Error("update order status failed",
				zap.Int64("order_id", orderID),
				zap.Int64("user_id", who.UserID),
				zap.String("status", string(next)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(next)),
		zap.Bool("restocked", next == domain.OrderStatusCancelled && restock),
	)
	return updated, nil
}
