package engine

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoscene/internal/geom"
)

// countingSolver wraps the analytic solver and counts calls.
type countingSolver struct {
	inner geom.Solver
	calls int
}

func newCountingSolver() *countingSolver {
	return &countingSolver{inner: geom.NewAnalytic(0)}
}

func (s *countingSolver) LineLine(a, b geom.Line) geom.Solution {
	s.calls++
	return s.inner.LineLine(a, b)
}

func (s *countingSolver) CircleCircle(a, b geom.Circle) geom.Solution {
	s.calls++
	return s.inner.CircleCircle(a, b)
}

func (s *countingSolver) CircleLine(c geom.Circle, l geom.Line) geom.Solution {
	s.calls++
	return s.inner.CircleLine(c, l)
}

func pt(x, y float64) r2.Point { return r2.Point{X: x, Y: y} }

func mustPoint(t *testing.T, b *Board, id string, x, y float64) *Point {
	t.Helper()
	p, err := b.CreatePoint(Attrs{ID: id, Name: id}, pt(x, y), false)
	require.NoError(t, err)
	return p
}

func mustCircle(t *testing.T, b *Board, id string, center any, r float64) *Circle {
	t.Helper()
	c, err := b.CreateCircle(Attrs{ID: id}, center, r)
	require.NoError(t, err)
	return c
}

func mustLine(t *testing.T, b *Board, id string, p1, p2 any) *Line {
	t.Helper()
	l, err := b.CreateLine(Attrs{ID: id}, p1, p2)
	require.NoError(t, err)
	return l
}

func mustIntersect(t *testing.T, b *Board, id string, a, c any) *Intersection {
	t.Helper()
	x, err := b.CreateIntersection(a, c, IntersectionOptions{Attrs: Attrs{ID: id}})
	require.NoError(t, err)
	return x
}

func assertCoords(t *testing.T, want r2.Point, p *Point) {
	t.Helper()
	assert.InDelta(t, want.X, p.Coords().X, 1e-9, "%s x", p.ID())
	assert.InDelta(t, want.Y, p.Coords().Y, 1e-9, "%s y", p.ID())
}

// twoCircles builds circles of radius 5 around A(0,0) and B(8,0) and
// their intersection "cc".
func twoCircles(t *testing.T, b *Board) (*Point, *Intersection) {
	t.Helper()
	mustPoint(t, b, "A", 0, 0)
	B := mustPoint(t, b, "B", 8, 0)
	mustCircle(t, b, "c1", "A", 5)
	mustCircle(t, b, "c2", "B", 5)
	return B, mustIntersect(t, b, "cc", "c1", "c2")
}
