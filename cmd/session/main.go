// Command session issues or revokes session tokens directly in Redis. Login
// lives outside this service; this is for local development and smoke tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/IsratTanny/DistribuTrack/internal/adapter/storage"
	"github.com/IsratTanny/DistribuTrack/internal/config"
	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
)

func main() {
	userID := flag.Int64("user", 0, "user id")
	role := flag.String("role", string(domain.RoleShopkeeper), "shopkeeper or distributor")
	revoke := flag.String("revoke", "", "token to revoke instead of issuing one")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	sessions := storage.NewRedisAdapter(rdb, cfg.SessionTTL, cfg.IdempotencyTTL)

	if *revoke != "" {
		if err := sessions.RevokeSession(ctx, *revoke); err != nil {
			log.Fatalf("failed to revoke session: %v", err)
		}
		fmt.Println("revoked")
		return
	}

	token, err := sessions.CreateSession(ctx, domain.Identity{UserID: *userID, Role: domain.Role(*role)})
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	fmt.Println(token)
}
