package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"tourbook/catalog"
)

// PackagesKey is the sorted set holding the cached catalog, one JSON member
// per package scored by its position in the database listing.
const PackagesKey = "packages"

type PackageLister interface {
	ListPackages(ctx context.Context) ([]catalog.Package, error)
}

// PackageCache serves ListPackages from Redis and falls through to next on
// a miss, filling the set on the way back.
type PackageCache struct {
	next PackageLister
	rdb  *redis.Client
	key  string
	log  *slog.Logger
}

func NewPackageCache(next PackageLister, rdb *redis.Client, log *slog.Logger) *PackageCache {
	if log == nil {
		log = slog.Default()
	}
	return &PackageCache{next: next, rdb: rdb, key: PackagesKey, log: log.With("component", "package_cache")}
}

func (c *PackageCache) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	if packages, ok := c.cached(ctx); ok {
		return packages, nil
	}

	packages, err := c.next.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.fill(ctx, packages); err != nil {
		c.log.Warn("fill package cache", slog.Any("err", err))
	}
	return packages, nil
}

func (c *PackageCache) cached(ctx context.Context) ([]catalog.Package, bool) {
	members, err := c.rdb.ZRange(ctx, c.key, 0, -1).Result()
	if err != nil {
		c.log.Warn("read package cache", slog.Any("err", err))
		return nil, false
	}
	if len(members) == 0 {
		return nil, false
	}

	packages := make([]catalog.Package, 0, len(members))
	for _, member := range members {
		var p catalog.Package
		if err := json.Unmarshal([]byte(member), &p); err != nil {
			// one bad member means the set is stale; rebuild it
			c.log.Warn("decode cached package", slog.Any("err", err))
			return nil, false
		}
		packages = append(packages, p)
	}
	return packages, true
}

func (c *PackageCache) fill(ctx context.Context, packages []catalog.Package) error {
	members := make([]redis.Z, 0, len(packages))
	for i, p := range packages {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		members = append(members, redis.Z{Score: float64(i), Member: data})
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, c.key, members...)
		}
		return nil
	})
	return err
}

// Invalidate drops the cached set so the next read goes to the database.
func (c *PackageCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}
