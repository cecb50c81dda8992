package terrain

import (
	gomath "math"

	"github.com/Faultbox/skyrunner/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay builds a ray, normalizing dir.
func NewRay(origin, dir math.Vec3) Ray {
	return Ray{Origin: origin, Direction: dir.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyAABB returns a box that any Extend call will replace.
func EmptyAABB() AABB {
	inf := gomath.Inf(1)
	return AABB{
		Min: math.V3(inf, inf, inf),
		Max: math.V3(-inf, -inf, -inf),
	}
}

// Extend grows the box to include p.
func (b *AABB) Extend(p math.Vec3) {
	b.Min = math.V3(gomath.Min(b.Min.X, p.X), gomath.Min(b.Min.Y, p.Y), gomath.Min(b.Min.Z, p.Z))
	b.Max = math.V3(gomath.Max(b.Max.X, p.X), gomath.Max(b.Max.Y, p.Y), gomath.Max(b.Max.Z, p.Z))
}

// Valid reports whether the box encloses at least one point.
func (b AABB) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// BoundingSphere returns the sphere circumscribing the box.
func (b AABB) BoundingSphere() Sphere {
	center := b.Min.Lerp(b.Max, 0.5)
	return Sphere{Center: center, Radius: b.Max.Sub(center).Length()}
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p math.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// IntersectsSphere reports whether the sphere touches the box.
func (b AABB) IntersectsSphere(s Sphere) bool {
	closest := math.V3(
		math.Clamp(s.Center.X, b.Min.X, b.Max.X),
		math.Clamp(s.Center.Y, b.Min.Y, b.Max.Y),
		math.Clamp(s.Center.Z, b.Min.Z, b.Max.Z),
	)
	return closest.Sub(s.Center).LengthSq() <= s.Radius*s.Radius
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float64, hit bool) {
	tmin := gomath.Inf(-1)
	tmax := gomath.Inf(1)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := range 3 {
		if dir[axis] != 0 {
			t1 := (lo[axis] - origin[axis]) / dir[axis]
			t2 := (hi[axis] - origin[axis]) / dir[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			tmin = gomath.Max(tmin, t1)
			tmax = gomath.Min(tmax, t2)
		} else if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectSphere reports whether the ray passes within the sphere no farther than maxDist.
func (r Ray) IntersectSphere(s Sphere, maxDist float64) bool {
	oc := s.Center.Sub(r.Origin)
	along := oc.Dot(r.Direction)
	if oc.LengthSq() <= s.Radius*s.Radius {
		return true
	}
	if along < 0 || along-s.Radius > maxDist {
		return false
	}
	perpSq := oc.LengthSq() - along*along
	return perpSq <= s.Radius*s.Radius
}

const triangleEpsilon = 1e-9

// IntersectTriangle is a double-sided Möller–Trumbore test.
// Returns the distance along the ray and whether the triangle was hit in front of the origin.
func (r Ray) IntersectTriangle(tri Triangle) (float64, bool) {
	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if gomath.Abs(det) < triangleEpsilon {
		return 0, false // Parallel or degenerate
	}
	inv := 1 / det

	s := r.Origin.Sub(tri.A)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}
