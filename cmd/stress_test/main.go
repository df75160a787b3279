package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/IsratTanny/DistribuTrack/internal/adapter/storage"
	"github.com/IsratTanny/DistribuTrack/internal/config"
	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
	perCart       = 1
	distributorID = 900001
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(totalRequests)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Seed one product and one cart line per shopkeeper, tagged with this run
	runID := uuid.NewString()
	res, err := db.ExecContext(ctx, `
		INSERT INTO inventory (distributor_id, product_name, description, price, quantity, is_active)
		VALUES (?, ?, 'stress test', 9.99, ?, 1)`, distributorID, "stress-"+runID, initialStock)
	if err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}
	productID, err := res.LastInsertId()
	if err != nil {
		log.Fatalf("failed to read product id: %v", err)
	}

	shopkeeperBase := time.Now().Unix() * 1000
	for i := 0; i < totalRequests; i++ {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO cart (shopkeeper_id, product_id, quantity) VALUES (?, ?, ?)`,
			shopkeeperBase+int64(i), productID, perCart); err != nil {
			log.Fatalf("failed to seed cart: %v", err)
		}
	}

	mysqlAdapter := storage.NewMySQLAdapter(db)
	orderService := service.NewOrderService(
		mysqlAdapter,
		storage.NewRedisAdapter(rdb, 0, time.Hour),
		zap.NewNop(),
	)

	// Counters
	var (
		placedUnits atomic.Int32
		noItems     atomic.Int32
		failed      atomic.Int32
	)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(shopkeeperID int64) {
			defer wg.Done()

			placement, err := orderService.PlaceOrder(ctx, domain.PlaceOrderRequest{
				ShopkeeperID:   shopkeeperID,
				IdempotencyKey: runID,
			})
			switch {
			case err == nil:
				for _, o := range placement.Orders {
					placedUnits.Add(int32(o.ItemsCount * perCart))
				}
			case errors.Is(err, service.ErrNoItemsToOrder):
				noItems.Add(1)
			default:
				failed.Add(1)
				log.Printf("shopkeeper %d: %v", shopkeeperID, err)
			}
		}(shopkeeperBase + int64(i))
	}

	wg.Wait()
	elapsed := time.Since(start)

	inv, err := mysqlAdapter.GetInventory(ctx, productID)
	if err != nil || inv == nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	finalStock := inv.Quantity

	var orderedUnits int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM order_items WHERE product_id = ?`, productID,
	).Scan(&orderedUnits); err != nil {
		log.Fatalf("failed to sum ordered units: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Run:              %s\n", runID)
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Units Placed:     %d\n", placedUnits.Load())
	fmt.Printf("No Items:         %d\n", noItems.Load())
	fmt.Printf("Failed:           %d\n", failed.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if orderedUnits <= initialStock && finalStock >= 0 && orderedUnits+finalStock == initialStock {
		fmt.Printf("PASS: %d units ordered, %d left, no oversell\n", orderedUnits, finalStock)
	} else {
		fmt.Printf("FAIL: ordered %d, final stock %d, initial %d\n", orderedUnits, finalStock, initialStock)
	}

	if int(placedUnits.Load()) == orderedUnits {
		fmt.Println("PASS: reported placements match persisted order items")
	} else {
		fmt.Printf("FAIL: reported %d units, persisted %d\n", placedUnits.Load(), orderedUnits)
	}
}
