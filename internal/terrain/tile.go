package terrain

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/skyrunner/pkg/math"
)

// TileKey addresses a square terrain tile on the streaming grid.
type TileKey struct {
	X, Z int
}

// String returns the tile id used as mesh id.
func (k TileKey) String() string {
	return fmt.Sprintf("tile_%d_%d", k.X, k.Z)
}

// TileAt returns the key of the tile containing the world point (x, z).
func TileAt(x, z, size float64) TileKey {
	return TileKey{
		X: int(gomath.Floor(x / size)),
		Z: int(gomath.Floor(z / size)),
	}
}

// TileMesh is a streamed terrain tile with precomputed bounds.
type TileMesh struct {
	Key       TileKey
	Tris      []Triangle
	Box       AABB
	bounds    Sphere
	hasBounds bool
}

// NewTileMesh computes the bounding box and sphere for tris.
// An empty triangle list yields a tile without bounds.
func NewTileMesh(key TileKey, tris []Triangle) *TileMesh {
	box := EmptyAABB()
	for _, t := range tris {
		box.Extend(t.A)
		box.Extend(t.B)
		box.Extend(t.C)
	}
	m := &TileMesh{Key: key, Tris: tris, Box: box}
	if box.Valid() {
		m.bounds = box.BoundingSphere()
		m.hasBounds = true
	}
	return m
}

// AABB returns the tile's axis-aligned bounds.
func (m *TileMesh) AABB() (AABB, bool) {
	return m.Box, m.hasBounds
}

// ID implements Mesh.
func (m *TileMesh) ID() string {
	return m.Key.String()
}

// Bounds implements Mesh.
func (m *TileMesh) Bounds() (Sphere, bool) {
	return m.bounds, m.hasBounds
}

// Triangles implements Mesh.
func (m *TileMesh) Triangles() ([]Triangle, error) {
	return m.Tris, nil
}

// BuildTile samples h on a res×res grid over the tile and triangulates it.
// Each grid cell becomes two triangles with upward-facing normals.
func BuildTile(key TileKey, size float64, res int, h HeightFunc) *TileMesh {
	if res < 1 {
		res = 1
	}
	step := size / float64(res)
	baseX := float64(key.X) * size
	baseZ := float64(key.Z) * size

	// Sample corners once; (res+1)^2 heights
	heights := make([][]float64, res+1)
	for i := range res + 1 {
		heights[i] = make([]float64, res+1)
		for j := range res + 1 {
			heights[i][j] = h(baseX+float64(i)*step, baseZ+float64(j)*step)
		}
	}

	tris := make([]Triangle, 0, 2*res*res)
	for i := range res {
		for j := range res {
			x0 := baseX + float64(i)*step
			z0 := baseZ + float64(j)*step
			x1, z1 := x0+step, z0+step

			p00 := math.V3(x0, heights[i][j], z0)
			p10 := math.V3(x1, heights[i+1][j], z0)
			p01 := math.V3(x0, heights[i][j+1], z1)
			p11 := math.V3(x1, heights[i+1][j+1], z1)

			// Winding chosen so cross(B-A, C-A) points up
			tris = append(tris,
				Triangle{A: p00, B: p01, C: p10},
				Triangle{A: p10, B: p01, C: p11},
			)
		}
	}
	return NewTileMesh(key, tris)
}
