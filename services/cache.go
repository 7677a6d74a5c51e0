package services

import (
	"context"
	"encoding/json"
	"time"

	"contesthub/realtime"

	"github.com/sirupsen/logrus"
)

// Cache is the read-through store for public listings
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Notifier receives contest events after a write commits
type Notifier interface {
	Publish(evt realtime.ContestEvent)
}

const (
	cacheKeyPopular   = "contests:popular"
	cacheKeyConfirmed = "contests:confirmed:"
)

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (nopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, ...string) error { return nil }

// NopCache disables caching
func NopCache() Cache { return nopCache{} }

type nopNotifier struct{}

func (nopNotifier) Publish(realtime.ContestEvent) {}

// NopNotifier drops every event
func NopNotifier() Notifier { return nopNotifier{} }

// cachedJSON serves key from the cache or fills it from load
func cachedJSON[T any](ctx context.Context, cache Cache, log logrus.FieldLogger, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if data, ok := cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		log.WithField("key", key).Warn("Discarding undecodable cache entry")
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := cache.Set(ctx, key, data, ttl); err != nil {
			log.WithError(err).WithField("key", key).Warn("Failed to fill cache")
		}
	}
	return v, nil
}

// invalidateListings drops every cached listing a contest write may have changed
func invalidateListings(ctx context.Context, cache Cache, log logrus.FieldLogger, categories ...string) {
	keys := []string{cacheKeyPopular, cacheKeyConfirmed}
	for _, c := range categories {
		keys = append(keys, confirmedKey(c))
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		log.WithError(err).Warn("Failed to invalidate listing cache")
	}
}
