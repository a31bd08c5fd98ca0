package engine

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/inamate/geoscene/internal/typeid"
)

// Point is a point entity. Free points are dragged by the user; fixed
// points are written by the construct that owns them.
type Point struct {
	ElementBase
	pos      r2.Point
	fixed    bool
	revision uint64
}

// CreatePoint registers a point at pos.
func (b *Board) CreatePoint(attrs Attrs, pos r2.Point, fixed bool) (*Point, error) {
	p := &Point{ElementBase: newBase(TypePoint, attrs), pos: pos, fixed: fixed}
	if err := b.register(p, typeid.PrefixPoint); err != nil {
		return nil, fmt.Errorf("create point: %w", err)
	}
	if attrs.Hidden {
		p.Hide()
	}
	return p, nil
}

// Coords returns the current position.
func (p *Point) Coords() r2.Point { return p.pos }

// Fixed reports whether the point is computed rather than draggable.
func (p *Point) Fixed() bool { return p.fixed }

// Revision counts coordinate writes.
func (p *Point) Revision() uint64 { return p.revision }

// SetCoords overwrites the position of a fixed point. Free points are
// moved through Board.MovePoint so dependents get recomputed.
func (p *Point) SetCoords(c r2.Point) {
	p.setCoords(c)
}

func (p *Point) setCoords(c r2.Point) {
	p.pos = c
	p.revision++
}

// HasPoint reports whether q lies within tol of the point.
func (p *Point) HasPoint(q r2.Point, tol float64) bool {
	return p.pos.Sub(q).Norm() <= tol
}
