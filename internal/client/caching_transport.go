package client

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/peterbourgon/diskv"
)

// CacheMode selects how responses are cached.
type CacheMode string

const (
	CacheNone   CacheMode = "none"
	CacheMemory CacheMode = "memory"
	CacheDisk   CacheMode = "disk"
)

const diskCacheSizeMax = 100 * 1024 * 1024

// ErrInvalidCacheMode is returned for an unknown cache mode.
var ErrInvalidCacheMode = errors.New("invalid cache mode")

// ParseCacheMode validates s. An empty string means CacheNone.
func ParseCacheMode(s string) (CacheMode, error) {
	switch CacheMode(s) {
	case "", CacheNone:
		return CacheNone, nil
	case CacheMemory, CacheDisk:
		return CacheMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCacheMode, s)
	}
}

// Cache is an httpcache.Cache that can be emptied. Entries are keyed on the
// URL only, so it must be reset whenever the cookies sent with requests change.
type Cache struct {
	mu    sync.RWMutex
	cache httpcache.Cache
	disk  *diskv.Diskv
}

var _ httpcache.Cache = (*Cache)(nil)

// NewCache returns the cache for mode, or nil for CacheNone. Disk mode
// persists responses under dir across restarts; without a dir it falls back
// to memory.
func NewCache(mode CacheMode, dir string) *Cache {
	switch mode {
	case CacheDisk:
		if dir == "" {
			return &Cache{cache: httpcache.NewMemoryCache()}
		}
		d := diskv.New(diskv.Options{
			BasePath:     dir,
			CacheSizeMax: diskCacheSizeMax,
		})
		return &Cache{cache: diskcache.NewWithDiskv(d), disk: d}
	case CacheMemory:
		return &Cache{cache: httpcache.NewMemoryCache()}
	default:
		return nil
	}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache.Get(key)
}

func (c *Cache) Set(key string, resp []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cache.Set(key, resp)
}

func (c *Cache) Delete(key string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cache.Delete(key)
}

// Reset drops every cached response, including those on disk.
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disk != nil {
		if err := c.disk.EraseAll(); err != nil {
			return fmt.Errorf("failed to erase response cache: %w", err)
		}
		return nil
	}

	c.cache = httpcache.NewMemoryCache()
	return nil
}

// NewCachingTransport wraps next with an RFC 7234 cache backed by cache.
// A nil cache returns next unchanged.
func NewCachingTransport(cache *Cache, next http.RoundTripper) http.RoundTripper {
	if cache == nil {
		return next
	}

	transport := httpcache.NewTransport(cache)
	transport.Transport = next

	return transport
}
