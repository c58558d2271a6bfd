// Package storage provides the durable key-value backends that hold the
// serialized post collection.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// KV is a minimal durable key-value store. Values are opaque bytes.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Driver names accepted by config.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
	DriverS3     = "s3"
)
