package geom

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPoint(t *testing.T, want, got r2.Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
}

func TestLineLine(t *testing.T) {
	s := NewAnalytic(0)

	sol := s.LineLine(
		Line{P1: r2.Point{X: -1, Y: -1}, P2: r2.Point{X: 1, Y: 1}},
		Line{P1: r2.Point{X: -1, Y: 1}, P2: r2.Point{X: 1, Y: -1}},
	)
	require.Equal(t, 1, sol.Count)
	assertPoint(t, r2.Point{}, sol.Points[0])

	// intersection outside both defining segments
	sol = s.LineLine(
		Line{P1: r2.Point{X: 0, Y: 0}, P2: r2.Point{X: 1, Y: 0}},
		Line{P1: r2.Point{X: 5, Y: 1}, P2: r2.Point{X: 5, Y: 2}},
	)
	require.Equal(t, 1, sol.Count)
	assertPoint(t, r2.Point{X: 5, Y: 0}, sol.Points[0])
}

func TestLineLineParallel(t *testing.T) {
	s := NewAnalytic(0)

	tests := []struct {
		name string
		a, b Line
	}{
		{"parallel", Line{r2.Point{X: 0, Y: 0}, r2.Point{X: 1, Y: 0}}, Line{r2.Point{X: 0, Y: 1}, r2.Point{X: 1, Y: 1}}},
		{"coincident", Line{r2.Point{X: 0, Y: 0}, r2.Point{X: 1, Y: 0}}, Line{r2.Point{X: 2, Y: 0}, r2.Point{X: 3, Y: 0}}},
		{"degenerate", Line{r2.Point{X: 1, Y: 1}, r2.Point{X: 1, Y: 1}}, Line{r2.Point{X: 0, Y: 1}, r2.Point{X: 1, Y: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0, s.LineLine(tt.a, tt.b).Count)
		})
	}
}

func TestCircleCircle(t *testing.T) {
	s := NewAnalytic(0)
	a := Circle{Center: r2.Point{X: 0, Y: 0}, Radius: 5}

	sol := s.CircleCircle(a, Circle{Center: r2.Point{X: 8, Y: 0}, Radius: 5})
	require.Equal(t, 2, sol.Count)
	assertPoint(t, r2.Point{X: 4, Y: 3}, sol.Points[0])
	assertPoint(t, r2.Point{X: 4, Y: -3}, sol.Points[1])

	sol = s.CircleCircle(a, Circle{Center: r2.Point{X: 11, Y: 0}, Radius: 5})
	assert.Equal(t, 0, sol.Count)

	sol = s.CircleCircle(a, Circle{Center: r2.Point{X: 20, Y: 0}, Radius: 5})
	assert.Equal(t, 0, sol.Count)

	// one circle inside the other
	sol = s.CircleCircle(a, Circle{Center: r2.Point{X: 1, Y: 0}, Radius: 1})
	assert.Equal(t, 0, sol.Count)

	// concentric
	sol = s.CircleCircle(a, Circle{Center: r2.Point{X: 0, Y: 0}, Radius: 5})
	assert.Equal(t, 0, sol.Count)
}

func TestCircleCircleTangent(t *testing.T) {
	s := NewAnalytic(0)
	sol := s.CircleCircle(
		Circle{Center: r2.Point{X: 0, Y: 0}, Radius: 5},
		Circle{Center: r2.Point{X: 10, Y: 0}, Radius: 5},
	)
	require.Equal(t, 1, sol.Count)
	assertPoint(t, r2.Point{X: 5, Y: 0}, sol.Points[0])
	assert.Equal(t, sol.Points[0], sol.Points[1])
}

func TestCircleLine(t *testing.T) {
	s := NewAnalytic(0)
	c := Circle{Center: r2.Point{X: 0, Y: 0}, Radius: 5}

	sol := s.CircleLine(c, Line{P1: r2.Point{X: -10, Y: 0}, P2: r2.Point{X: 10, Y: 0}})
	require.Equal(t, 2, sol.Count)
	assertPoint(t, r2.Point{X: -5, Y: 0}, sol.Points[0])
	assertPoint(t, r2.Point{X: 5, Y: 0}, sol.Points[1])

	// reversed direction flips the order
	sol = s.CircleLine(c, Line{P1: r2.Point{X: 10, Y: 0}, P2: r2.Point{X: -10, Y: 0}})
	require.Equal(t, 2, sol.Count)
	assertPoint(t, r2.Point{X: 5, Y: 0}, sol.Points[0])

	sol = s.CircleLine(c, Line{P1: r2.Point{X: -10, Y: 5}, P2: r2.Point{X: 10, Y: 5}})
	require.Equal(t, 1, sol.Count)
	assertPoint(t, r2.Point{X: 0, Y: 5}, sol.Points[0])

	sol = s.CircleLine(c, Line{P1: r2.Point{X: -10, Y: 6}, P2: r2.Point{X: 10, Y: 6}})
	assert.Equal(t, 0, sol.Count)
}

func TestCircleInvalidRadius(t *testing.T) {
	s := NewAnalytic(0)
	bad := Circle{Center: r2.Point{}, Radius: -1}
	assert.Equal(t, 0, s.CircleLine(bad, Line{r2.Point{X: -1}, r2.Point{X: 1}}).Count)
	assert.Equal(t, 0, s.CircleCircle(bad, Circle{Radius: 1}).Count)
}
