package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisAdapter(client, time.Hour, time.Minute)
}

func TestSetIdempotency_Success(t *testing.T) {
	_, adapter := newTestRedis(t)
	ctx := context.Background()

	ok, err := adapter.SetIdempotency(ctx, "order:1:abc")
	require.NoError(t, err)
	assert.True(t, ok, "first call should win")

	ok, err = adapter.SetIdempotency(ctx, "order:1:abc")
	require.NoError(t, err)
	assert.False(t, ok, "second call should see the key")
}

func TestSetIdempotency_ExpiresAndReleases(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	ok, err := adapter.SetIdempotency(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("idem:k"))

	require.NoError(t, adapter.ReleaseIdempotency(ctx, "k"))
	ok, err = adapter.SetIdempotency(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "released key can be taken again")

	mr.FastForward(2 * time.Minute)
	ok, err = adapter.SetIdempotency(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "expired key can be taken again")
}

func TestSetIdempotency_Concurrent(t *testing.T) {
	_, adapter := newTestRedis(t)
	ctx := context.Background()

	var (
		wins atomic.Int32
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, "same-key")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestSession_CreateResolveRevoke(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	who := domain.Identity{UserID: 12, Role: domain.RoleShopkeeper}
	token, err := adapter.CreateSession(ctx, who)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, time.Hour, mr.TTL("session:"+token))

	got, err := adapter.ResolveSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, who, got)

	require.NoError(t, adapter.RevokeSession(ctx, token))
	_, err = adapter.ResolveSession(ctx, token)
	assert.ErrorIs(t, err, port.ErrSessionNotFound)
}

func TestSession_Expired(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	token, err := adapter.CreateSession(ctx, domain.Identity{UserID: 3, Role: domain.RoleDistributor})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = adapter.ResolveSession(ctx, token)
	assert.ErrorIs(t, err, port.ErrSessionNotFound)
}

func TestSession_Rejects(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	_, err := adapter.CreateSession(ctx, domain.Identity{UserID: 0, Role: domain.RoleShopkeeper})
	assert.Error(t, err)

	_, err = adapter.ResolveSession(ctx, "")
	assert.ErrorIs(t, err, port.ErrSessionNotFound)

	require.NoError(t, mr.Set("session:forged", `{"user_id":5,"role":"admin"}`))
	_, err = adapter.ResolveSession(ctx, "forged")
	assert.ErrorIs(t, err, port.ErrSessionNotFound)

	require.NoError(t, mr.Set("session:garbage", `not json`))
	_, err = adapter.ResolveSession(ctx, "garbage")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrSessionNotFound)
}
