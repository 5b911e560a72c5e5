// Package storage provides the durable key-value mirrors behind cart and
// wishlist collections.
//
// Three backends are available:
//   - File: one JSON file per key, replaced atomically on every write
//   - Redis: one string value per key, optionally expiring
//   - Memory: a process-local map, for tests and single-node development
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the contract every backend satisfies. Load returns nil data and a
// nil error for an unknown key.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Options struct {
	Driver string
	Dir    string
	Prefix string
	TTL    time.Duration
}

// New builds the backend named by opts.Driver. rdb is only used by the
// redis driver.
func New(opts Options, rdb *redis.Client) (KV, error) {
	switch opts.Driver {
	case DriverFile:
		return NewFile(opts.Dir)
	case DriverRedis, "":
		if rdb == nil {
			return nil, fmt.Errorf("storage driver %q needs a redis client", DriverRedis)
		}
		return NewRedis(rdb, opts.Prefix, opts.TTL), nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
