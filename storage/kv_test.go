package storage_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/liveplus/storage"
)

// exerciseKV checks the behavior every backend must share.
func exerciseKV(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "posts", []byte(`[{"id":"1"}]`)))
	got, err := kv.Get(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	require.NoError(t, kv.Set(ctx, "posts", []byte(`[]`)))
	got, err = kv.Get(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = kv.Get(ctx, "other")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemory(t *testing.T) {
	exerciseKV(t, storage.NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestGormSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:kvtest?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	kv, err := storage.NewGorm(db)
	require.NoError(t, err)
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := storage.NewRedis(client)
	defer kv.Close()

	exerciseKV(t, kv)

	ttl := mr.TTL("posts")
	assert.Zero(t, ttl, "collection must not expire")
}
