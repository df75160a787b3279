package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(tx port.OrderTx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetInventory(ctx context.Context, productID int64) (*domain.InventoryItem, error) {
	var (
		inv         domain.InventoryItem
		description sql.NullString
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, distributor_id, product_name, description, price, quantity, is_active, created_at, updated_at
		FROM inventory WHERE id = ?`, productID,
	).Scan(&inv.ID, &inv.DistributorID, &inv.ProductName, &description, &inv.Price,
		&inv.Quantity, &inv.IsActive, &inv.CreatedAt, &inv.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}

	inv.Description = description.String
	return &inv, nil
}

func (m *MySQLAdapter) GetCart(ctx context.Context, shopkeeperID int64) (*domain.Cart, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT c.id, c.shopkeeper_id, c.product_id, c.quantity, i.product_name, i.price, i.quantity
		FROM cart c
		JOIN inventory i ON i.id = c.product_id
		WHERE c.shopkeeper_id = ?
		ORDER BY c.id`, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	cart := &domain.Cart{
		ShopkeeperID: shopkeeperID,
		Lines:        []domain.CartEntry{},
		Subtotal:     decimal.Zero,
	}
	for rows.Next() {
		var e domain.CartEntry
		if err := rows.Scan(&e.ID, &e.ShopkeeperID, &e.ProductID, &e.Quantity, &e.ProductName, &e.Price, &e.Stock); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		e.LineTotal = e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
		cart.Lines = append(cart.Lines, e)
		cart.TotalQuantity += e.Quantity
		cart.Subtotal = cart.Subtotal.Add(e.LineTotal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart: %w", err)
	}
	return cart, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, who domain.Identity) ([]domain.Order, error) {
	column := "shopkeeper_id"
	if who.Role == domain.RoleDistributor {
		column = "distributor_id"
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, shopkeeper_id, distributor_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE `+column+` = ?
		ORDER BY created_at DESC, id DESC`, who.UserID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	index := make(map[int64]int)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.ShopkeeperID, &o.DistributorID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = []domain.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	itemRows, err := m.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id IN (`+placeholders(len(ids))+`)
		ORDER BY id`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return orders, nil
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) ReadCart(ctx context.Context, shopkeeperID int64, productIDs []int64) ([]domain.CartLine, error) {
	query := `SELECT id, shopkeeper_id, product_id, quantity FROM cart WHERE shopkeeper_id = ?`
	args := []any{shopkeeperID}
	if len(productIDs) > 0 {
		query += ` AND product_id IN (` + placeholders(len(productIDs)) + `)`
		args = append(args, int64Args(productIDs)...)
	}
	query += ` ORDER BY id FOR UPDATE`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.ShopkeeperID, &line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// LockInventory takes row locks in ascending id order so that two
// transactions touching overlapping products cannot deadlock on each other.
func (t *mysqlTx) LockInventory(ctx context.Context, productIDs []int64) (map[int64]domain.StockSnapshot, error) {
	snaps := make(map[int64]domain.StockSnapshot, len(productIDs))
	if len(productIDs) == 0 {
		return snaps, nil
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, distributor_id, price, quantity, is_active
		FROM inventory
		WHERE id IN (`+placeholders(len(productIDs))+`)
		ORDER BY id
		FOR UPDATE`, int64Args(productIDs)...)
	if err != nil {
		return nil, fmt.Errorf("lock inventory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.StockSnapshot
		if err := rows.Scan(&s.ProductID, &s.DistributorID, &s.Price, &s.Stock, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		snaps[s.ProductID] = s
	}
	return snaps, rows.Err()
}

func (t *mysqlTx) DecrementStock(ctx context.Context, productID int64, amount int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity - ?
		WHERE id = ? AND quantity >= ?`,
		amount, productID, amount,
	)
	if err != nil {
		return false, fmt.Errorf("update inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

func (t *mysqlTx) IncrementStock(ctx context.Context, productID int64, amount int) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE inventory SET quantity = quantity + ? WHERE id = ?`, amount, productID)
	if err != nil {
		return fmt.Errorf("restock inventory: %w", err)
	}
	return nil
}

func (t *mysqlTx) CreateOrder(ctx context.Context, order *domain.Order) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (shopkeeper_id, distributor_id, total_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ShopkeeperID, order.DistributorID, order.TotalAmount, order.Status,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	order.ID = id
	return id, nil
}

func (t *mysqlTx) AddOrderItem(ctx context.Context, item domain.OrderItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES (?, ?, ?, ?)`,
		item.OrderID, item.ProductID, item.Quantity, item.Price,
	)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *mysqlTx) DeleteCartLines(ctx context.Context, shopkeeperID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}

	args := append([]any{shopkeeperID}, int64Args(productIDs)...)
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM cart
		WHERE shopkeeper_id = ? AND product_id IN (`+placeholders(len(productIDs))+`)`, args...)
	if err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	return nil
}

func (t *mysqlTx) GetCartLine(ctx context.Context, shopkeeperID, productID int64) (*domain.CartLine, error) {
	var line domain.CartLine
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, shopkeeper_id, product_id, quantity
		FROM cart
		WHERE shopkeeper_id = ? AND product_id = ?
		FOR UPDATE`, shopkeeperID, productID,
	).Scan(&line.ID, &line.ShopkeeperID, &line.ProductID, &line.Quantity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}
	return &line, nil
}

func (t *mysqlTx) SaveCartLine(ctx context.Context, line *domain.CartLine) error {
	if line.ID != 0 {
		_, err := t.tx.ExecContext(ctx, `
			UPDATE cart SET quantity = ? WHERE id = ? AND shopkeeper_id = ?`,
			line.Quantity, line.ID, line.ShopkeeperID,
		)
		if err != nil {
			return fmt.Errorf("update cart line: %w", err)
		}
		return nil
	}

	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO cart (shopkeeper_id, product_id, quantity) VALUES (?, ?, ?)`,
		line.ShopkeeperID, line.ProductID, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	line.ID = id
	return nil
}

func (t *mysqlTx) LockOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var o domain.Order
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, shopkeeper_id, distributor_id, total_amount, status, created_at, updated_at
		FROM orders WHERE id = ?
		FOR UPDATE`, orderID,
	).Scan(&o.ID, &o.ShopkeeperID, &o.DistributorID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

func (t *mysqlTx) OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = ?
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *mysqlTx) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, at, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
