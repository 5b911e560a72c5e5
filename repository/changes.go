package repository

import (
	"context"
	"log/slog"
	"strings"
)

type refresher interface {
	Refresh(ctx context.Context) error
}

// Changes propagates an admin write: local caches are dropped, then the
// change is published so every instance re-fetches its feeds. Without a
// notifier the local feeds are refreshed directly.
type Changes struct {
	Cache    *PackageCache
	Rates    *RateCache
	Notifier *RedisNotifier
	Local    refresher
	Log      *slog.Logger
}

func (c *Changes) Changed(ctx context.Context, what string) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	if c.Cache != nil && strings.HasPrefix(what, "packages") {
		if err := c.Cache.Invalidate(ctx); err != nil {
			log.Warn("invalidate package cache", slog.Any("err", err))
		}
	}

	if c.Rates != nil && what == "fx-rates" {
		c.Rates.Invalidate()
	}

	if c.Notifier != nil {
		err := c.Notifier.Publish(ctx, what)
		if err == nil {
			return
		}
		log.Warn("publish catalog change", slog.String("what", what), slog.Any("err", err))
	}
	if c.Local != nil {
		if err := c.Local.Refresh(ctx); err != nil {
			log.Warn("refresh feeds", slog.Any("err", err))
		}
	}
}
