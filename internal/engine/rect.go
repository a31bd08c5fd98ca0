package engine

import (
	"math"

	"github.com/golang/geo/r2"
)

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromBox converts a (xmin, ymax, xmax, ymin) bounding box.
func RectFromBox(box [4]float64) Rect {
	xmin, ymax, xmax, ymin := box[0], box[1], box[2], box[3]
	return Rect{
		X:      math.Min(xmin, xmax),
		Y:      math.Min(ymin, ymax),
		Width:  math.Abs(xmax - xmin),
		Height: math.Abs(ymax - ymin),
	}
}

// RectAround returns the square of half-size r centered on p.
func RectAround(p r2.Point, r float64) Rect {
	return Rect{X: p.X - r, Y: p.Y - r, Width: 2 * r, Height: 2 * r}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Diagonal returns the length of the diagonal.
func (r Rect) Diagonal() float64 {
	return math.Hypot(r.Width, r.Height)
}
