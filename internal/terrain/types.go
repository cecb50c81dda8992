// Package terrain provides the streamed terrain mesh set the flight core queries:
// mesh primitives, ray casting, broad-phase culling and procedural tiles.
package terrain

import "github.com/Faultbox/skyrunner/pkg/math"

// Triangle is a world-space terrain face.
// N is an optional precomputed normal; zero means derive it from the winding.
type Triangle struct {
	A, B, C math.Vec3
	N       math.Vec3
}

// Normal returns the face normal and whether one exists.
// Degenerate triangles have none.
func (t Triangle) Normal() (math.Vec3, bool) {
	if !t.N.IsZero() {
		return t.N.Normalize(), true
	}
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	if n.LengthSq() < 1e-18 {
		return math.Vec3{}, false
	}
	return n.Normalize(), true
}

// Sphere is a bounding sphere. It doubles as the craft's collision envelope.
type Sphere struct {
	Center math.Vec3
	Radius float64
}

// Intersects reports whether two spheres overlap or touch.
func (s Sphere) Intersects(other Sphere) bool {
	r := s.Radius + other.Radius
	return s.Center.Sub(other.Center).LengthSq() <= r*r
}

// Hit is the result of a terrain probe. It is never kept across ticks.
type Hit struct {
	Point     math.Vec3
	Normal    math.Vec3 // Faces the probe origin; valid only when HasNormal
	HasNormal bool
	Distance  float64
	MeshID    string
}

// Mesh is one renderable terrain primitive supplied by the streaming service.
type Mesh interface {
	ID() string
	// Bounds returns the precomputed bounding sphere, if the mesh has one.
	Bounds() (Sphere, bool)
	// Triangles returns the world-space geometry.
	Triangles() ([]Triangle, error)
}

// Source is the mutable mesh set. Meshes returns a snapshot; the set may change
// between calls.
type Source interface {
	Meshes() []Mesh
}

// Static is a fixed mesh set.
type Static []Mesh

// Meshes returns the meshes.
func (s Static) Meshes() []Mesh {
	return s
}
