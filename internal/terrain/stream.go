package terrain

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/logger"
	"github.com/Faultbox/skyrunner/pkg/math"
)

// Streamer keeps the tiles around the craft loaded into a TileCache.
// Positions are sent from the tick loop with Follow; tiles are built on the
// streamer's own goroutine so a tick never waits on generation.
type Streamer struct {
	cache   *TileCache
	height  HeightFunc
	terrain config.Terrain
	cfg     config.StreamingConfig

	positions chan math.Vec3
	log       *zap.Logger
}

// NewStreamer creates a streamer for the environment's terrain.
// It returns a nil streamer and no error when the environment has no terrain.
func NewStreamer(cache *TileCache, t config.Terrain, cfg config.StreamingConfig) (*Streamer, error) {
	h, err := NewHeightFunc(t)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	if t.TileSize <= 0 {
		return nil, fmt.Errorf("terrain.tile_size must be positive, got %v", t.TileSize)
	}
	if cfg.Resolution < 1 {
		cfg.Resolution = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Streamer{
		cache:     cache,
		height:    h,
		terrain:   t,
		cfg:       cfg,
		positions: make(chan math.Vec3, 1),
		log:       logger.Named("stream"),
	}, nil
}

// Follow hands the latest craft position to the streamer without blocking.
// A position not yet picked up is replaced.
func (s *Streamer) Follow(pos math.Vec3) {
	for {
		select {
		case s.positions <- pos:
			return
		default:
		}
		select {
		case <-s.positions:
		default:
		}
	}
}

// Load synchronously loads the tiles around pos.
func (s *Streamer) Load(ctx context.Context, pos math.Vec3) error {
	keys := TilesAround(pos.X, pos.Z, s.terrain.TileSize, s.cfg.Radius)
	for _, k := range keys {
		s.cache.Touch(k)
	}
	missing := s.cache.Missing(keys)
	if len(missing) == 0 {
		return nil
	}

	tiles, err := GenerateTiles(ctx, missing, s.cfg.Workers, func(k TileKey) (*TileMesh, error) {
		return BuildTile(k, s.terrain.TileSize, s.cfg.Resolution, s.height), nil
	})
	if err != nil {
		return err
	}
	for _, t := range tiles {
		s.cache.Add(t)
	}
	s.log.Debug("tiles loaded",
		zap.Int("built", len(tiles)),
		zap.Int("cached", s.cache.Len()),
		zap.Stringer("center", TileAt(pos.X, pos.Z, s.terrain.TileSize)),
	)
	return nil
}

// Run loads tiles for each followed position until ctx is done.
func (s *Streamer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case pos := <-s.positions:
			if err := s.Load(ctx, pos); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("streaming tiles: %w", err)
			}
		}
	}
}
