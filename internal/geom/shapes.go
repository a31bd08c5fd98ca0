// Package geom holds the shape descriptors the scene hands to the solver,
// the analytic solver itself and the affine matrix used for view and
// element transforms.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Line is the infinite line through P1 and P2. Rays, segments and arrows
// are all intersected as their carrier line.
type Line struct {
	P1 r2.Point
	P2 r2.Point
}

// Direction returns the vector from P1 to P2.
func (l Line) Direction() r2.Point {
	return l.P2.Sub(l.P1)
}

// Degenerate reports whether both defining points coincide within eps.
func (l Line) Degenerate(eps float64) bool {
	return l.Direction().Norm() <= eps
}

// Foot returns the orthogonal projection of p onto the line.
func (l Line) Foot(p r2.Point) r2.Point {
	d := l.Direction()
	dd := d.Dot(d)
	if dd == 0 {
		return l.P1
	}
	t := p.Sub(l.P1).Dot(d) / dd
	return l.P1.Add(d.Mul(t))
}

// Circle is a full circle. Arcs are intersected as their carrier circle.
type Circle struct {
	Center r2.Point
	Radius float64
}

// Valid reports whether the circle has a finite, non-negative radius.
func (c Circle) Valid() bool {
	return c.Radius >= 0 && !math.IsNaN(c.Radius) && !math.IsInf(c.Radius, 0)
}

// Finite reports whether both coordinates of p are finite numbers.
func Finite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}
