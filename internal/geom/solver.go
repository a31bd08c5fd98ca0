package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// DefaultEpsilon is the tolerance used when no explicit epsilon is configured.
const DefaultEpsilon = 1e-9

// Solution is the result of intersecting two shapes.
// Count is 0, 1 or 2. For Count == 1 both Points hold the same coordinate
// so callers that always read two slots see the touching point twice.
type Solution struct {
	Count  int
	Points [2]r2.Point
}

// Solver computes intersections between shape descriptors. Implementations
// must be pure: the same inputs always give the same Solution.
type Solver interface {
	LineLine(a, b Line) Solution
	CircleCircle(a, b Circle) Solution
	CircleLine(c Circle, l Line) Solution
}

// Analytic solves intersections in closed form.
type Analytic struct {
	Epsilon float64
}

// NewAnalytic returns an analytic solver using eps for parallel and tangency
// decisions. A non-positive eps selects DefaultEpsilon.
func NewAnalytic(eps float64) *Analytic {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	return &Analytic{Epsilon: eps}
}

// LineLine intersects two infinite lines. Parallel, coincident or
// degenerate lines have no single solution and report Count 0.
func (s *Analytic) LineLine(a, b Line) Solution {
	if a.Degenerate(s.Epsilon) || b.Degenerate(s.Epsilon) {
		return Solution{}
	}

	d1 := a.Direction()
	d2 := b.Direction()
	denom := d1.Cross(d2)
	if math.Abs(denom) <= s.Epsilon*d1.Norm()*d2.Norm() {
		return Solution{}
	}

	t := b.P1.Sub(a.P1).Cross(d2) / denom
	p := a.P1.Add(d1.Mul(t))
	return Solution{Count: 1, Points: [2]r2.Point{p, p}}
}

// CircleCircle intersects two circles. Concentric circles report Count 0,
// including the coincident case which has infinitely many solutions.
func (s *Analytic) CircleCircle(a, b Circle) Solution {
	if !a.Valid() || !b.Valid() {
		return Solution{}
	}

	delta := b.Center.Sub(a.Center)
	d := delta.Norm()
	if d <= s.Epsilon {
		return Solution{}
	}
	if d > a.Radius+b.Radius+s.Epsilon || d < math.Abs(a.Radius-b.Radius)-s.Epsilon {
		return Solution{}
	}

	// distance from a.Center to the radical line along delta
	along := (a.Radius*a.Radius - b.Radius*b.Radius + d*d) / (2 * d)
	u := delta.Mul(1 / d)
	mid := a.Center.Add(u.Mul(along))

	h2 := a.Radius*a.Radius - along*along
	if h2 <= s.Epsilon*s.Epsilon {
		return Solution{Count: 1, Points: [2]r2.Point{mid, mid}}
	}

	off := u.Ortho().Mul(math.Sqrt(h2))
	return Solution{Count: 2, Points: [2]r2.Point{mid.Add(off), mid.Sub(off)}}
}

// CircleLine intersects a circle with an infinite line. The two solutions
// are ordered along the line direction from P1 towards P2.
func (s *Analytic) CircleLine(c Circle, l Line) Solution {
	if !c.Valid() || l.Degenerate(s.Epsilon) {
		return Solution{}
	}

	foot := l.Foot(c.Center)
	dist := Distance(foot, c.Center)
	if dist > c.Radius+s.Epsilon {
		return Solution{}
	}

	h2 := c.Radius*c.Radius - dist*dist
	if h2 <= s.Epsilon*s.Epsilon {
		return Solution{Count: 1, Points: [2]r2.Point{foot, foot}}
	}

	off := l.Direction().Normalize().Mul(math.Sqrt(h2))
	return Solution{Count: 2, Points: [2]r2.Point{foot.Sub(off), foot.Add(off)}}
}
