package roadnet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/margdarshak/backend/internal/domain"
)

// FileCache persists one city's road network as a JSON blob, mirroring the
// single-city-at-a-time keying: a request for a different city always
// misses. Writes go through a temp file and rename so readers never observe
// a partially written entry.
type FileCache struct {
	mu   sync.RWMutex
	path string
}

// NewFileCache creates a file-backed road cache
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Get returns the cached network when the stored city matches.
func (c *FileCache) Get(ctx context.Context, city string) (*domain.RoadNetwork, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var network domain.RoadNetwork
	if err := json.Unmarshal(data, &network); err != nil {
		return nil, false
	}
	if !strings.EqualFold(network.City, city) {
		return nil, false
	}
	return &network, true
}

// Put replaces the cache contents atomically.
func (c *FileCache) Put(ctx context.Context, network *domain.RoadNetwork) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(network)
	if err != nil {
		return fmt.Errorf("roadcache: failed to marshal network: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil && filepath.Dir(c.path) != "." {
		return fmt.Errorf("roadcache: failed to create cache dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("roadcache: failed to write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("roadcache: failed to replace cache: %w", err)
	}
	return nil
}

// Invalidate drops the cache entry for the city if it matches.
func (c *FileCache) Invalidate(ctx context.Context, city string) {
	if _, ok := c.Get(ctx, city); !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = os.Remove(c.path)
}

// MemoryCache is a map-backed road cache for tests and demo mode.
type MemoryCache struct {
	mu       sync.RWMutex
	networks map[string]*domain.RoadNetwork
}

// NewMemoryCache creates an in-memory road cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{networks: make(map[string]*domain.RoadNetwork)}
}

func (c *MemoryCache) Get(ctx context.Context, city string) (*domain.RoadNetwork, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	network, ok := c.networks[strings.ToLower(city)]
	return network, ok
}

func (c *MemoryCache) Put(ctx context.Context, network *domain.RoadNetwork) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.networks[strings.ToLower(network.City)] = network
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, city string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.networks, strings.ToLower(city))
}
