package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

type fakeSessions map[string]domain.Identity

func (f fakeSessions) ResolveSession(_ context.Context, token string) (domain.Identity, error) {
	who, ok := f[token]
	if !ok {
		return domain.Identity{}, port.ErrSessionNotFound
	}
	return who, nil
}

type fakeOrders struct {
	placement *domain.Placement
	err       error
	orders    []domain.Order
	updated   *domain.Order

	lastRequest domain.PlaceOrderRequest
	lastStatus  string
	lastRestock bool
	lastOrderID int64
}

func (f *fakeOrders) PlaceOrder(_ context.Context, req domain.PlaceOrderRequest) (*domain.Placement, error) {
	f.lastRequest = req
	return f.placement, f.err
}

func (f *fakeOrders) ListOrders(_ context.Context, _ domain.Identity) ([]domain.Order, error) {
	return f.orders, f.err
}

func (f *fakeOrders) UpdateStatus(_ context.Context, _ domain.Identity, orderID int64, status string, restock bool) (*domain.Order, error) {
	f.lastOrderID, f.lastStatus, f.lastRestock = orderID, status, restock
	return f.updated, f.err
}

type fakeCarts struct {
	cart *domain.Cart
	err  error

	added    []int64
	updated  map[int64]int
	adjusted map[int64]int
	removed  []int64
}

func (f *fakeCarts) AddItem(_ context.Context, _, productID int64, quantity int) (*domain.CartLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, productID)
	return &domain.CartLine{ProductID: productID, Quantity: quantity}, nil
}

func (f *fakeCarts) UpdateItem(_ context.Context, _, productID int64, quantity int) (*domain.CartLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = map[int64]int{}
	}
	f.updated[productID] = quantity
	return &domain.CartLine{ProductID: productID, Quantity: quantity}, nil
}

func (f *fakeCarts) AdjustItem(_ context.Context, _, productID int64, delta int) (*domain.CartLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.adjusted == nil {
		f.adjusted = map[int64]int{}
	}
	f.adjusted[productID] += delta
	return &domain.CartLine{ProductID: productID}, nil
}

func (f *fakeCarts) RemoveItem(_ context.Context, _, productID int64) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, productID)
	return nil
}

func (f *fakeCarts) GetCart(_ context.Context, shopkeeperID int64) (*domain.Cart, error) {
	if f.cart != nil {
		return f.cart, nil
	}
	return &domain.Cart{ShopkeeperID: shopkeeperID, Subtotal: decimal.Zero}, nil
}

var testCreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
