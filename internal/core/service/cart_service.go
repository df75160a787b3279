package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

type CartService struct {
	db     port.DatabaseRepository
	logger *zap.Logger
}

func NewCartService(db port.DatabaseRepository, logger *zap.Logger) *CartService {
	return &CartService{db: db, logger: logger}
}

// AddItem adds quantity to the shopkeeper's line for the product, creating it
// if needed. The resulting cart quantity may not exceed current stock.
func (s *CartService) AddItem(ctx context.Context, shopkeeperID, productID int64, quantity int) (*domain.CartLine, error) {
	if shopkeeperID <= 0 {
		return nil, ErrUnauthorized
	}
	if productID <= 0 || quantity < 1 {
		return nil, fmt.Errorf("%w: product_id and quantity must be positive", ErrInvalidRequest)
	}

	var saved *domain.CartLine
	err := s.db.WithinTx(ctx, func(tx port.OrderTx) error {
		stock, err := tx.LockInventory(ctx, []int64{productID})
		if err != nil {
			return fmt.Errorf("lock inventory: %w", err)
		}
		snap, ok := stock[productID]
		if !ok {
			return ErrProductNotFound
		}
		if !snap.IsActive {
			return ErrProductUnavailable
		}

		line, err := tx.GetCartLine(ctx, shopkeeperID, productID)
		if err != nil {
			return fmt.Errorf("read cart line: %w", err)
		}
		if line == nil {
			line = &domain.CartLine{ShopkeeperID: shopkeeperID, ProductID: productID}
		}

		newQty := line.Quantity + quantity
		if newQty > snap.Stock {
			return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, newQty, snap.Stock)
		}

		line.Quantity = newQty
		if err := tx.SaveCartLine(ctx, line); err != nil {
			return fmt.Errorf("save cart line: %w", err)
		}
		saved = line
		return nil
	})
	if err != nil {
		s.logFailure("add cart item", shopkeeperID, productID, err)
		return nil, err
	}
	return saved, nil
}

// UpdateItem sets the quantity of an existing line. A quantity <= 0 removes
// the line and returns a nil line. Lines for deactivated products are removed
// and reported with ErrProductUnavailable.
func (s *CartService) UpdateItem(ctx context.Context, shopkeeperID, productID int64, quantity int) (*domain.CartLine, error) {
	return s.changeQuantity(ctx, "update cart item", shopkeeperID, productID, func(int) int { return quantity })
}

// AdjustItem adds delta (usually +1 or -1) to an existing line with the same
// rules as UpdateItem; dropping to zero removes the line.
func (s *CartService) AdjustItem(ctx context.Context, shopkeeperID, productID int64, delta int) (*domain.CartLine, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", ErrInvalidRequest)
	}
	return s.changeQuantity(ctx, "adjust cart item", shopkeeperID, productID, func(current int) int { return current + delta })
}

func (s *CartService) changeQuantity(ctx context.Context, op string, shopkeeperID, productID int64, next func(current int) int) (*domain.CartLine, error) {
	if shopkeeperID <= 0 {
		return nil, ErrUnauthorized
	}
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product_id must be positive", ErrInvalidRequest)
	}

	var (
		saved       *domain.CartLine
		unavailable bool
	)
	err := s.db.WithinTx(ctx, func(tx port.OrderTx) error {
		line, err := tx.GetCartLine(ctx, shopkeeperID, productID)
		if err != nil {
			return fmt.Errorf("read cart line: %w", err)
		}
		if line == nil {
			return ErrCartLineNotFound
		}

		stock, err := tx.LockInventory(ctx, []int64{productID})
		if err != nil {
			return fmt.Errorf("lock inventory: %w", err)
		}
		snap, ok := stock[productID]
		if !ok || !snap.IsActive {
			unavailable = true
			return tx.DeleteCartLines(ctx, shopkeeperID, []int64{productID})
		}

		quantity := next(line.Quantity)
		if quantity <= 0 {
			return tx.DeleteCartLines(ctx, shopkeeperID, []int64{productID})
		}
		if quantity > snap.Stock {
			return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, snap.Stock)
		}

		line.Quantity = quantity
		if err := tx.SaveCartLine(ctx, line); err != nil {
			return fmt.Errorf("save cart line: %w", err)
		}
		saved = line
		return nil
	})
	if err != nil {
		s.logFailure(op, shopkeeperID, productID, err)
		return nil, err
	}
	if unavailable {
		return nil, ErrProductUnavailable
	}
	return saved, nil
}

func (s *CartService) RemoveItem(ctx context.Context, shopkeeperID, productID int64) error {
	if shopkeeperID <= 0 {
		return ErrUnauthorized
	}
	if productID <= 0 {
		return fmt.Errorf("%w: product_id must be positive", ErrInvalidRequest)
	}

	err := s.db.WithinTx(ctx, func(tx port.OrderTx) error {
		line, err := tx.GetCartLine(ctx, shopkeeperID, productID)
		if err != nil {
			return fmt.Errorf("read cart line: %w", err)
		}
		if line == nil {
			return ErrCartLineNotFound
		}
		return tx.DeleteCartLines(ctx, shopkeeperID, []int64{productID})
	})
	if err != nil {
		s.logFailure("remove cart item", shopkeeperID, productID, err)
		return err
	}
	return nil
}

func (s *CartService) GetCart(ctx context.Context, shopkeeperID int64) (*domain.Cart, error) {
	if shopkeeperID <= 0 {
		return nil, ErrUnauthorized
	}

	cart, err := s.db.GetCart(ctx, shopkeeperID)
	if err != nil {
		s.logger.Error("get cart failed", zap.Int64("shopkeeper_id", shopkeeperID), zap.Error(err))
		return nil, err
	}
	return cart, nil
}

func (s *CartService) logFailure(op string, shopkeeperID, productID int64, err error) {
	if isExpected(err) || errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Error(op+" failed",
		zap.Int64("shopkeeper_id", shopkeeperID),
		zap.Int64("product_id", productID),
		zap.Error(err),
	)
}
