package terrain

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/skyrunner/internal/logger"
)

// TileCache is the streamed mesh set: a bounded, thread-safe LRU of tiles.
// The streamer adds tiles while the simulation reads snapshots; evicted
// tiles simply disappear from the next snapshot.
type TileCache struct {
	tiles *lru.Cache[TileKey, *TileMesh]
	log   *zap.Logger
}

// NewTileCache creates a cache holding at most capacity tiles.
func NewTileCache(capacity int) (*TileCache, error) {
	c := &TileCache{log: logger.Named("terrain")}
	tiles, err := lru.NewWithEvict(capacity, func(key TileKey, _ *TileMesh) {
		c.log.Debug("tile evicted", zap.Stringer("tile", key))
	})
	if err != nil {
		return nil, fmt.Errorf("creating tile cache: %w", err)
	}
	c.tiles = tiles
	return c, nil
}

// Add stores a tile, evicting the least recently used one when full.
func (c *TileCache) Add(tile *TileMesh) {
	if tile == nil {
		return
	}
	c.tiles.Add(tile.Key, tile)
}

// Touch marks the key as recently used. Returns false if it is not cached.
func (c *TileCache) Touch(key TileKey) bool {
	_, ok := c.tiles.Get(key)
	return ok
}

// Missing returns the keys not currently cached, in input order.
func (c *TileCache) Missing(keys []TileKey) []TileKey {
	var out []TileKey
	for _, k := range keys {
		if !c.tiles.Contains(k) {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of cached tiles.
func (c *TileCache) Len() int {
	return c.tiles.Len()
}

// Purge drops every tile.
func (c *TileCache) Purge() {
	c.tiles.Purge()
}

// Meshes implements Source with a snapshot of the cached tiles.
func (c *TileCache) Meshes() []Mesh {
	values := c.tiles.Values()
	out := make([]Mesh, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
