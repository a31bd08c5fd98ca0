package geom

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestMatrixApply(t *testing.T) {
	m := Translate(2, 3).Multiply(Scale(2, 2))
	assertPoint(t, r2.Point{X: 4, Y: 5}, m.Apply(r2.Point{X: 1, Y: 1}))

	r := RotateAround(math.Pi/2, r2.Point{X: 1, Y: 0})
	assertPoint(t, r2.Point{X: 1, Y: 1}, r.Apply(r2.Point{X: 2, Y: 0}))
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(5, -2).Multiply(RotateDegrees(30)).Multiply(Scale(3, 1.5))
	assert.True(t, m.Multiply(m.Invert()).IsIdentity())
	assert.Equal(t, Identity(), Scale(0, 1).Invert())
}

func TestViewMatrix(t *testing.T) {
	v := ViewMatrix([4]float64{-10, 10, 10, -10}, 400, 400)
	assertPoint(t, r2.Point{X: 0, Y: 0}, v.Apply(r2.Point{X: -10, Y: 10}))
	assertPoint(t, r2.Point{X: 200, Y: 200}, v.Apply(r2.Point{}))
	assertPoint(t, r2.Point{X: 400, Y: 400}, v.Apply(r2.Point{X: 10, Y: -10}))
	assertPoint(t, r2.Point{X: 5, Y: 5}, v.Invert().Apply(r2.Point{X: 300, Y: 100}))

	assert.True(t, ViewMatrix([4]float64{0, 0, 0, 0}, 10, 10).IsIdentity())
	assert.InDelta(t, 20, v.ScaleFactor(), 1e-9)
}
