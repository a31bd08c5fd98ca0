package engine

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/inamate/geoscene/internal/geom"
	"github.com/inamate/geoscene/internal/typeid"
)

// Line is the line through two points. Arrows share the type with the
// arrow flag set and are hit-tested as segments.
type Line struct {
	ElementBase
	p1, p2 string
	arrow  bool
}

// CreateLine registers the line through the points p1 and p2.
func (b *Board) CreateLine(attrs Attrs, p1, p2 any) (*Line, error) {
	return b.createLine(TypeLine, typeid.PrefixLine, attrs, p1, p2)
}

// CreateArrow registers an arrow from p1 to p2.
func (b *Board) CreateArrow(attrs Attrs, p1, p2 any) (*Line, error) {
	return b.createLine(TypeArrow, typeid.PrefixArrow, attrs, p1, p2)
}

func (b *Board) createLine(typ ElementType, prefix string, attrs Attrs, p1, p2 any) (*Line, error) {
	a, err := b.resolvePoint(p1)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", typ, err)
	}
	c, err := b.resolvePoint(p2)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", typ, err)
	}

	l := &Line{ElementBase: newBase(typ, attrs), p1: a.id, p2: c.id, arrow: typ == TypeArrow}
	if err := b.register(l, prefix); err != nil {
		return nil, fmt.Errorf("create %s: %w", typ, err)
	}
	b.AddDependency(a, l)
	b.AddDependency(c, l)
	if attrs.Hidden {
		l.Hide()
	}
	return l, nil
}

// IsArrow reports whether the line is drawn as an arrow.
func (l *Line) IsArrow() bool { return l.arrow }

// LineShape returns the current carrier line.
func (l *Line) LineShape() (geom.Line, bool) {
	if l.board == nil {
		return geom.Line{}, false
	}
	a, ok1 := l.board.coords(l.p1)
	c, ok2 := l.board.coords(l.p2)
	return geom.Line{P1: a, P2: c}, ok1 && ok2
}

// HasPoint tests the distance to the carrier line, or to the segment for
// arrows.
func (l *Line) HasPoint(p r2.Point, tol float64) bool {
	shape, ok := l.LineShape()
	if !ok || shape.Degenerate(geom.DefaultEpsilon) {
		return false
	}
	if l.arrow {
		return segmentDistance(shape.P1, shape.P2, p) <= tol
	}
	return geom.Distance(shape.Foot(p), p) <= tol
}

func segmentDistance(a, b, p r2.Point) float64 {
	d := b.Sub(a)
	t := p.Sub(a).Dot(d) / d.Dot(d)
	t = math.Max(0, math.Min(1, t))
	return geom.Distance(a.Add(d.Mul(t)), p)
}

// Circle is a circle around a center point, with either a fixed radius or
// a radius given by a second point on the circle.
type Circle struct {
	ElementBase
	center  string
	through string
	radius  float64
}

// CreateCircle registers a circle with a numeric radius.
func (b *Board) CreateCircle(attrs Attrs, center any, radius float64) (*Circle, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("create circle: invalid radius %v", radius)
	}
	c, err := b.resolvePoint(center)
	if err != nil {
		return nil, fmt.Errorf("create circle: %w", err)
	}

	circ := &Circle{ElementBase: newBase(TypeCircle, attrs), center: c.id, radius: radius}
	if err := b.register(circ, typeid.PrefixCircle); err != nil {
		return nil, fmt.Errorf("create circle: %w", err)
	}
	b.AddDependency(c, circ)
	if attrs.Hidden {
		circ.Hide()
	}
	return circ, nil
}

// CreateCircleThrough registers the circle around center passing through
// the point through.
func (b *Board) CreateCircleThrough(attrs Attrs, center, through any) (*Circle, error) {
	c, err := b.resolvePoint(center)
	if err != nil {
		return nil, fmt.Errorf("create circle: %w", err)
	}
	t, err := b.resolvePoint(through)
	if err != nil {
		return nil, fmt.Errorf("create circle: %w", err)
	}

	circ := &Circle{ElementBase: newBase(TypeCircle, attrs), center: c.id, through: t.id}
	if err := b.register(circ, typeid.PrefixCircle); err != nil {
		return nil, fmt.Errorf("create circle: %w", err)
	}
	b.AddDependency(c, circ)
	b.AddDependency(t, circ)
	if attrs.Hidden {
		circ.Hide()
	}
	return circ, nil
}

func (c *Circle) centerOnly() bool { return c.through == "" }

// CircleShape returns the current circle.
func (c *Circle) CircleShape() (geom.Circle, bool) {
	if c.board == nil {
		return geom.Circle{}, false
	}
	center, ok := c.board.coords(c.center)
	if !ok {
		return geom.Circle{}, false
	}
	if c.centerOnly() {
		return geom.Circle{Center: center, Radius: c.radius}, true
	}
	t, ok := c.board.coords(c.through)
	return geom.Circle{Center: center, Radius: geom.Distance(center, t)}, ok
}

// HasPoint tests the distance to the circumference.
func (c *Circle) HasPoint(p r2.Point, tol float64) bool {
	shape, ok := c.CircleShape()
	if !ok {
		return false
	}
	return math.Abs(geom.Distance(shape.Center, p)-shape.Radius) <= tol
}

// Arc is the counter-clockwise arc around center starting at the radius
// point and ending at the ray towards the angle point. It intersects as
// its full carrier circle.
type Arc struct {
	ElementBase
	center, radiusPoint, anglePoint string
}

// CreateArc registers an arc.
func (b *Board) CreateArc(attrs Attrs, center, radiusPoint, anglePoint any) (*Arc, error) {
	pts := make([]*Point, 0, 3)
	for _, ref := range []any{center, radiusPoint, anglePoint} {
		p, err := b.resolvePoint(ref)
		if err != nil {
			return nil, fmt.Errorf("create arc: %w", err)
		}
		pts = append(pts, p)
	}

	a := &Arc{ElementBase: newBase(TypeArc, attrs), center: pts[0].id, radiusPoint: pts[1].id, anglePoint: pts[2].id}
	if err := b.register(a, typeid.PrefixArc); err != nil {
		return nil, fmt.Errorf("create arc: %w", err)
	}
	for _, p := range pts {
		b.AddDependency(p, a)
	}
	if attrs.Hidden {
		a.Hide()
	}
	return a, nil
}

// CircleShape returns the carrier circle.
func (a *Arc) CircleShape() (geom.Circle, bool) {
	if a.board == nil {
		return geom.Circle{}, false
	}
	c, ok1 := a.board.coords(a.center)
	r, ok2 := a.board.coords(a.radiusPoint)
	return geom.Circle{Center: c, Radius: geom.Distance(c, r)}, ok1 && ok2
}

// Angles returns the start angle and the counter-clockwise sweep in
// radians.
func (a *Arc) Angles() (start, sweep float64, ok bool) {
	if a.board == nil {
		return 0, 0, false
	}
	c, ok1 := a.board.coords(a.center)
	r, ok2 := a.board.coords(a.radiusPoint)
	e, ok3 := a.board.coords(a.anglePoint)
	if !ok1 || !ok2 || !ok3 {
		return 0, 0, false
	}
	start = angleOf(r.Sub(c))
	sweep = normalizeAngle(angleOf(e.Sub(c)) - start)
	return start, sweep, true
}

// HasPoint tests the distance to the circumference within the sweep.
func (a *Arc) HasPoint(p r2.Point, tol float64) bool {
	shape, ok := a.CircleShape()
	if !ok || math.Abs(geom.Distance(shape.Center, p)-shape.Radius) > tol {
		return false
	}
	start, sweep, ok := a.Angles()
	if !ok {
		return false
	}
	return normalizeAngle(angleOf(p.Sub(shape.Center))-start) <= sweep
}

func angleOf(v r2.Point) float64 {
	return math.Atan2(v.Y, v.X)
}

// normalizeAngle maps a to [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Label is a text anchored to a point.
type Label struct {
	ElementBase
	anchor string
	text   string
	offset r2.Point
}

// CreateLabel registers a label attached to anchor.
func (b *Board) CreateLabel(attrs Attrs, anchor any, text string, offset r2.Point) (*Label, error) {
	a, err := b.resolvePoint(anchor)
	if err != nil {
		return nil, fmt.Errorf("create label: %w", err)
	}

	l := &Label{ElementBase: newBase(TypeLabel, attrs), anchor: a.id, text: text, offset: offset}
	if err := b.register(l, typeid.PrefixLabel); err != nil {
		return nil, fmt.Errorf("create label: %w", err)
	}
	b.AddDependency(a, l)
	if attrs.Hidden {
		l.Hide()
	}
	return l, nil
}

// Text returns the label text.
func (l *Label) Text() string { return l.text }

// Position returns the anchor position plus the offset.
func (l *Label) Position() (r2.Point, bool) {
	if l.board == nil {
		return r2.Point{}, false
	}
	a, ok := l.board.coords(l.anchor)
	return a.Add(l.offset), ok
}

// HasPoint tests proximity to the label position.
func (l *Label) HasPoint(p r2.Point, tol float64) bool {
	pos, ok := l.Position()
	return ok && geom.Distance(pos, p) <= tol
}

func (b *Board) resolvePoint(ref any) (*Point, error) {
	el, err := b.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, ref)
	}
	p, ok := el.(*Point)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a point", ErrWrongType, el.ID(), el.Type())
	}
	return p, nil
}
