package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

type fakeState struct {
	inventory map[int64]domain.InventoryItem
	cart      []domain.CartLine
	orders    []domain.Order
	items     []domain.OrderItem
	nextID    int64
}

func (s *fakeState) clone() *fakeState {
	inv := make(map[int64]domain.InventoryItem, len(s.inventory))
	for id, item := range s.inventory {
		inv[id] = item
	}
	return &fakeState{
		inventory: inv,
		cart:      slices.Clone(s.cart),
		orders:    slices.Clone(s.orders),
		items:     slices.Clone(s.items),
		nextID:    s.nextID,
	}
}

func (s *fakeState) id() int64 {
	s.nextID++
	return s.nextID
}

// Mock DatabaseRepository. Transactions are fully serialized and work on a
// copy of the state that only replaces the committed state on success.
type mockDatabaseRepo struct {
	mu      sync.Mutex
	state   *fakeState
	txCount int

	// steal simulates another writer consuming stock between the locked read
	// and the conditional decrement
	steal map[int64]int

	failCreateOrder error
	failDecrement   error
}

func newMockDatabaseRepo() *mockDatabaseRepo {
	return &mockDatabaseRepo{
		state: &fakeState{inventory: make(map[int64]domain.InventoryItem)},
		steal: make(map[int64]int),
	}
}

func (m *mockDatabaseRepo) addProduct(id, distributorID int64, price string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.inventory[id] = domain.InventoryItem{
		ID:            id,
		DistributorID: distributorID,
		ProductName:   "product",
		Price:         decimal.RequireFromString(price),
		Quantity:      quantity,
		IsActive:      true,
	}
}

func (m *mockDatabaseRepo) deactivate(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.state.inventory[id]
	item.IsActive = false
	m.state.inventory[id] = item
}

func (m *mockDatabaseRepo) addCartLine(shopkeeperID, productID int64, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.cart = append(m.state.cart, domain.CartLine{
		ID:           m.state.id(),
		ShopkeeperID: shopkeeperID,
		ProductID:    productID,
		Quantity:     quantity,
	})
}

func (m *mockDatabaseRepo) addOrder(order domain.Order, items ...domain.OrderItem) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.state.id()
	m.state.orders = append(m.state.orders, order)
	for _, item := range items {
		item.ID = m.state.id()
		item.OrderID = order.ID
		m.state.items = append(m.state.items, item)
	}
	return order.ID
}

func (m *mockDatabaseRepo) stock(productID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.inventory[productID].Quantity
}

func (m *mockDatabaseRepo) cartLines(shopkeeperID int64) map[int64]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make(map[int64]int)
	for _, line := range m.state.cart {
		if line.ShopkeeperID == shopkeeperID {
			lines[line.ProductID] = line.Quantity
		}
	}
	return lines
}

func (m *mockDatabaseRepo) orders() []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.orders)
}

func (m *mockDatabaseRepo) orderItems(orderID int64) []domain.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.OrderItem
	for _, item := range m.state.items {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	return items
}

func (m *mockDatabaseRepo) allItems() []domain.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.items)
}

func (m *mockDatabaseRepo) WithinTx(ctx context.Context, fn func(tx port.OrderTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	work := m.state.clone()
	if err := fn(&mockTx{repo: m, state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *mockDatabaseRepo) GetCart(ctx context.Context, shopkeeperID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart := &domain.Cart{ShopkeeperID: shopkeeperID, Lines: []domain.CartEntry{}, Subtotal: decimal.Zero}
	for _, line := range m.state.cart {
		if line.ShopkeeperID != shopkeeperID {
			continue
		}
		inv := m.state.inventory[line.ProductID]
		total := inv.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cart.Lines = append(cart.Lines, domain.CartEntry{
			CartLine:    line,
			ProductName: inv.ProductName,
			Price:       inv.Price,
			Stock:       inv.Quantity,
			LineTotal:   total,
		})
		cart.TotalQuantity += line.Quantity
		cart.Subtotal = cart.Subtotal.Add(total)
	}
	return cart, nil
}

func (m *mockDatabaseRepo) ListOrders(ctx context.Context, who domain.Identity) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []domain.Order
	for _, order := range m.state.orders {
		owner := order.ShopkeeperID
		if who.Role == domain.RoleDistributor {
			owner = order.DistributorID
		}
		if owner != who.UserID {
			continue
		}
		for _, item := range m.state.items {
			if item.OrderID == order.ID {
				order.Items = append(order.Items, item)
			}
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (m *mockDatabaseRepo) GetInventory(ctx context.Context, productID int64) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.state.inventory[productID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

type mockTx struct {
	repo  *mockDatabaseRepo
	state *fakeState
}

func (t *mockTx) ReadCart(ctx context.Context, shopkeeperID int64, productIDs []int64) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	for _, line := range t.state.cart {
		if line.ShopkeeperID != shopkeeperID {
			continue
		}
		if len(productIDs) > 0 && !slices.Contains(productIDs, line.ProductID) {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (t *mockTx) LockInventory(ctx context.Context, productIDs []int64) (map[int64]domain.StockSnapshot, error) {
	snaps := make(map[int64]domain.StockSnapshot)
	for _, id := range productIDs {
		item, ok := t.state.inventory[id]
		if !ok {
			continue
		}
		snaps[id] = domain.StockSnapshot{
			ProductID:     id,
			DistributorID: item.DistributorID,
			Price:         item.Price,
			Stock:         item.Quantity,
			IsActive:      item.IsActive,
		}
	}
	return snaps, nil
}

func (t *mockTx) DecrementStock(ctx context.Context, productID int64, amount int) (bool, error) {
	if t.repo.failDecrement != nil {
		return false, t.repo.failDecrement
	}

	item := t.state.inventory[productID]
	if n := t.repo.steal[productID]; n > 0 {
		item.Quantity -= n
		delete(t.repo.steal, productID)
	}
	if item.Quantity < amount {
		t.state.inventory[productID] = item
		return false, nil
	}
	item.Quantity -= amount
	t.state.inventory[productID] = item
	return true, nil
}

func (t *mockTx) IncrementStock(ctx context.Context, productID int64, amount int) error {
	item := t.state.inventory[productID]
	item.Quantity += amount
	t.state.inventory[productID] = item
	return nil
}

func (t *mockTx) CreateOrder(ctx context.Context, order *domain.Order) (int64, error) {
	if t.repo.failCreateOrder != nil {
		return 0, t.repo.failCreateOrder
	}
	stored := *order
	stored.ID = t.state.id()
	t.state.orders = append(t.state.orders, stored)
	return stored.ID, nil
}

func (t *mockTx) AddOrderItem(ctx context.Context, item domain.OrderItem) error {
	item.ID = t.state.id()
	t.state.items = append(t.state.items, item)
	return nil
}

func (t *mockTx) DeleteCartLines(ctx context.Context, shopkeeperID int64, productIDs []int64) error {
	t.state.cart = slices.DeleteFunc(t.state.cart, func(line domain.CartLine) bool {
		return line.ShopkeeperID == shopkeeperID && slices.Contains(productIDs, line.ProductID)
	})
	return nil
}

func (t *mockTx) GetCartLine(ctx context.Context, shopkeeperID, productID int64) (*domain.CartLine, error) {
	for _, line := range t.state.cart {
		if line.ShopkeeperID == shopkeeperID && line.ProductID == productID {
			found := line
			return &found, nil
		}
	}
	return nil, nil
}

func (t *mockTx) SaveCartLine(ctx context.Context, line *domain.CartLine) error {
	if line.ID == 0 {
		line.ID = t.state.id()
		t.state.cart = append(t.state.cart, *line)
		return nil
	}
	for i := range t.state.cart {
		if t.state.cart[i].ID == line.ID {
			t.state.cart[i].Quantity = line.Quantity
		}
	}
	return nil
}

func (t *mockTx) LockOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	for _, order := range t.state.orders {
		if order.ID == orderID {
			found := order
			return &found, nil
		}
	}
	return nil, nil
}

func (t *mockTx) OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	for _, item := range t.state.items {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (t *mockTx) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, at time.Time) error {
	for i := range t.state.orders {
		if t.state.orders[i].ID == orderID {
			t.state.orders[i].Status = status
			t.state.orders[i].UpdatedAt = at
		}
	}
	return nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	idempotencySet map[string]bool
	released       []string
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}
