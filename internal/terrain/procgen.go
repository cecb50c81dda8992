package terrain

import (
	"context"
	"fmt"
	gomath "math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/skyrunner/internal/config"
)

// HeightFunc returns the terrain height at world (x, z).
type HeightFunc func(x, z float64) float64

// NewHeightFunc returns the height field named by cfg.Generator.
// "none" returns a nil func: the environment has no terrain.
func NewHeightFunc(cfg config.Terrain) (HeightFunc, error) {
	base, amp := cfg.BaseHeight, cfg.Amplitude
	wl := cfg.Wavelength
	if wl <= 0 {
		wl = 1
	}

	switch cfg.Generator {
	case "", "none":
		return nil, nil
	case "flat":
		return func(x, z float64) float64 { return base }, nil
	case "rolling":
		k := 2 * gomath.Pi / wl
		return func(x, z float64) float64 {
			ridge := gomath.Sin(x*k) * gomath.Cos(z*k)
			detail := gomath.Sin((x+z)*k*2.7) * gomath.Cos((x-z)*k*1.3)
			return base + amp*(0.75*ridge+0.25*detail)
		}, nil
	case "blocks":
		return func(x, z float64) float64 {
			cx, cz := gomath.Floor(x/wl), gomath.Floor(z/wl)
			fx, fz := x/wl-cx, z/wl-cz
			// Streets along the cell edges
			if fx < 0.15 || fx > 0.85 || fz < 0.15 || fz > 0.85 {
				return base
			}
			return base + amp*(0.2+0.8*cellNoise(int(cx), int(cz)))
		}, nil
	case "craters":
		return func(x, z float64) float64 {
			cx, cz := gomath.Floor(x/wl), gomath.Floor(z/wl)
			r := 0.25 + 0.2*cellNoise(int(cx), int(cz))
			dx, dz := x/wl-cx-0.5, z/wl-cz-0.5
			d := gomath.Sqrt(dx*dx+dz*dz) / r
			switch {
			case d < 1:
				return base - amp*(1-d*d)
			case d < 1.4:
				// Raised rim
				return base + 0.3*amp*(1-gomath.Abs(d-1.2)/0.2)
			}
			return base
		}, nil
	}
	return nil, fmt.Errorf("unknown terrain generator %q", cfg.Generator)
}

// cellNoise is a deterministic hash of a grid cell into [0, 1).
func cellNoise(x, z int) float64 {
	h := uint32(x)*374761393 + uint32(z)*668265263
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h) / float64(1<<32)
}

// TilesAround returns the keys within radius tiles of (x, z), nearest first.
func TilesAround(x, z, size float64, radius int) []TileKey {
	center := TileAt(x, z, size)
	keys := make([]TileKey, 0, (2*radius+1)*(2*radius+1))
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			keys = append(keys, TileKey{X: center.X + dx, Z: center.Z + dz})
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return ringDist(keys[i], center) < ringDist(keys[j], center)
	})
	return keys
}

func ringDist(k, c TileKey) int {
	dx, dz := k.X-c.X, k.Z-c.Z
	return dx*dx + dz*dz
}

// GenerateTiles builds tiles in parallel with at most workers running at once.
// Results keep the order of keys.
func GenerateTiles(ctx context.Context, keys []TileKey, workers int, build func(TileKey) (*TileMesh, error)) ([]*TileMesh, error) {
	tiles := make([]*TileMesh, len(keys))

	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, key := range keys {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tile, err := build(key)
			if err != nil {
				return fmt.Errorf("building %s: %w", key, err)
			}
			tiles[i] = tile
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}
