package cache

import (
	"context"
	"time"

	pkgerrors "github.com/athebyme/emag-console/pkg/errors"
	"github.com/athebyme/emag-console/pkg/interfaces"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache реализация CachePort в памяти процесса на go-cache.
// Используется, когда Redis не настроен
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache создает кэш в памяти с интервалом очистки устаревших записей
func NewMemoryCache(cleanupInterval time.Duration) interfaces.CachePort {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := m.store.Get(key)
	if !ok {
		return nil, pkgerrors.ErrCacheMiss
	}
	data, ok := val.([]byte)
	if !ok {
		return nil, pkgerrors.ErrCacheMiss
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	m.store.Set(key, append([]byte(nil), value...), expiration)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

func (m *MemoryCache) Close() error {
	m.store.Flush()
	return nil
}
