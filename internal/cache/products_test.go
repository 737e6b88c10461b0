package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sawahraya/backend-beras/internal/cache"
	"github.com/sawahraya/backend-beras/internal/catalog"
	"github.com/sawahraya/backend-beras/internal/store"
)

func setup(t *testing.T) (*cache.Products, *catalog.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := &catalog.Service{Store: store.NewMem()}
	return &cache.Products{R: rdb, Source: svc, TTL: time.Minute}, svc, mr
}

func TestProductReadThrough(t *testing.T) {
	c, svc, _ := setup(t)
	ctx := context.Background()

	seeded, err := svc.Upsert(ctx, catalog.Product{Name: "Beras Pandan", BasePricePerKg: 150})
	require.NoError(t, err)

	got, err := c.Product(ctx, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "Beras Pandan", got.Name)

	// Second read is served from redis even if the row changes underneath.
	_, err = svc.Upsert(ctx, func() catalog.Product { seeded.Name = "Renamed"; return seeded }())
	require.NoError(t, err)
	cached, err := c.Product(ctx, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "Beras Pandan", cached.Name)

	// Invalidate exposes the fresh row.
	c.Invalidate(ctx, seeded.ID)
	fresh, err := c.Product(ctx, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", fresh.Name)
}

func TestProductMissingTombstone(t *testing.T) {
	c, _, mr := setup(t)
	ctx := context.Background()

	_, err := c.Product(ctx, "ghost")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.True(t, mr.Exists("product:ghost"))

	_, err = c.Product(ctx, "ghost")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestProductRedisDownFallsThrough(t *testing.T) {
	c, svc, mr := setup(t)
	ctx := context.Background()

	seeded, err := svc.Upsert(ctx, catalog.Product{Name: "Beras Merah", BasePricePerKg: 180})
	require.NoError(t, err)

	mr.Close()
	got, err := c.Product(ctx, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "Beras Merah", got.Name)
}
