package terrain

import (
	"errors"
	"fmt"
)

// ErrProbePanic wraps a panic raised by a mesh during a probe.
var ErrProbePanic = errors.New("terrain: mesh panicked during probe")

// boxed is implemented by meshes that also carry axis-aligned bounds.
type boxed interface {
	AABB() (AABB, bool)
}

// Cull keeps the meshes whose bounding sphere intersects env, then drops
// those whose box, when known, does not.
// Meshes without bounds are dropped and reported to skipped, if set.
func Cull(meshes []Mesh, env Sphere, skipped func(Mesh)) []Mesh {
	out := make([]Mesh, 0, len(meshes))
	for _, m := range meshes {
		if m == nil {
			continue
		}
		b, ok := m.Bounds()
		if !ok {
			if skipped != nil {
				skipped(m)
			}
			continue
		}
		if !b.Intersects(env) {
			continue
		}
		if bm, ok := m.(boxed); ok {
			if box, ok := bm.AABB(); ok && !box.IntersectsSphere(env) {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// AlongRay keeps the meshes with bounds whose sphere, and box when known,
// the ray reaches within maxDist.
// Meshes without bounds are dropped and reported to skipped, if set.
func AlongRay(meshes []Mesh, ray Ray, maxDist float64, skipped func(Mesh)) []Mesh {
	out := make([]Mesh, 0, len(meshes))
	for _, m := range meshes {
		if m == nil {
			continue
		}
		b, ok := m.Bounds()
		if !ok {
			if skipped != nil {
				skipped(m)
			}
			continue
		}
		if !ray.IntersectSphere(b, maxDist) {
			continue
		}
		if bm, ok := m.(boxed); ok {
			if box, ok := bm.AABB(); ok && !box.Contains(ray.Origin) {
				if t, hit := ray.IntersectAABB(box); !hit || t > maxDist {
					continue
				}
			}
		}
		out = append(out, m)
	}
	return out
}

// Cast returns the nearest hit within maxDist across meshes.
// A mesh whose geometry cannot be read fails the whole cast.
func Cast(meshes []Mesh, ray Ray, maxDist float64) (Hit, bool, error) {
	best := Hit{Distance: maxDist}
	found := false

	for _, m := range meshes {
		tris, err := m.Triangles()
		if err != nil {
			return Hit{}, false, fmt.Errorf("mesh %s: %w", m.ID(), err)
		}
		for _, tri := range tris {
			t, ok := ray.IntersectTriangle(tri)
			if !ok || t > best.Distance {
				continue
			}
			best = Hit{
				Point:    ray.At(t),
				Distance: t,
				MeshID:   m.ID(),
			}
			if n, ok := tri.Normal(); ok {
				// Double-sided: face the probe origin
				if n.Dot(ray.Direction) > 0 {
					n = n.Negate()
				}
				best.Normal = n
				best.HasNormal = true
			}
			found = true
		}
	}

	if !found {
		return Hit{}, false, nil
	}
	return best, true, nil
}

// Probe is Cast with panics from mesh implementations turned into errors.
func Probe(meshes []Mesh, ray Ray, maxDist float64) (hit Hit, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			hit, ok = Hit{}, false
			err = fmt.Errorf("%w: %v", ErrProbePanic, r)
		}
	}()
	return Cast(meshes, ray, maxDist)
}
