package engine

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/inamate/geoscene/internal/geom"
	"github.com/inamate/geoscene/internal/typeid"
)

// Kind classifies the parent pair of an intersection.
type Kind int

const (
	// KindNone marks a construct created with an absent parent. It owns no
	// points and never recomputes.
	KindNone Kind = iota
	KindLineLine
	KindCircleCircle
	KindCircleLine
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLineLine:
		return "line-line"
	case KindCircleCircle:
		return "circle-circle"
	case KindCircleLine:
		return "circle-line"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type lineShaper interface {
	Element
	LineShape() (geom.Line, bool)
}

type circleShaper interface {
	Element
	CircleShape() (geom.Circle, bool)
}

// intersector is the per-kind part of a construct: how many points it
// owns, how it asks the solver and what counts as a real solution.
type intersector interface {
	kind() Kind
	pointCount() int
	solve(s geom.Solver, a, b Element) (geom.Solution, bool)
	real(sol geom.Solution) bool
}

type lineLine struct{}

func (lineLine) kind() Kind      { return KindLineLine }
func (lineLine) pointCount() int { return 1 }

func (lineLine) solve(s geom.Solver, a, b Element) (geom.Solution, bool) {
	la, ok1 := a.(lineShaper).LineShape()
	lb, ok2 := b.(lineShaper).LineShape()
	if !ok1 || !ok2 {
		return geom.Solution{}, false
	}
	return s.LineLine(la, lb), true
}

// Two lines are always considered to meet. Parallel lines leave the point
// where it was.
func (lineLine) real(geom.Solution) bool { return true }

type circleCircle struct{}

func (circleCircle) kind() Kind      { return KindCircleCircle }
func (circleCircle) pointCount() int { return 2 }

func (circleCircle) solve(s geom.Solver, a, b Element) (geom.Solution, bool) {
	ca, ok1 := a.(circleShaper).CircleShape()
	cb, ok2 := b.(circleShaper).CircleShape()
	if !ok1 || !ok2 {
		return geom.Solution{}, false
	}
	return s.CircleCircle(ca, cb), true
}

func (circleCircle) real(sol geom.Solution) bool { return sol.Count >= 1 }

type circleLine struct{}

func (circleLine) kind() Kind      { return KindCircleLine }
func (circleLine) pointCount() int { return 2 }

func (circleLine) solve(s geom.Solver, a, b Element) (geom.Solution, bool) {
	c, ok1 := a.(circleShaper).CircleShape()
	l, ok2 := b.(lineShaper).LineShape()
	if !ok1 || !ok2 {
		return geom.Solution{}, false
	}
	return s.CircleLine(c, l), true
}

// A tangent line is real; both point slots sit on the touching point.
func (circleLine) real(sol geom.Solution) bool { return sol.Count >= 1 }

func intersectorFor(k Kind) intersector {
	switch k {
	case KindLineLine:
		return lineLine{}
	case KindCircleCircle:
		return circleCircle{}
	case KindCircleLine:
		return circleLine{}
	default:
		return nil
	}
}

func isLineType(t ElementType) bool   { return t == TypeLine || t == TypeArrow }
func isCircleType(t ElementType) bool { return t == TypeCircle || t == TypeArc }

// classify determines the kind of the pair and puts the circle first for
// circle-line pairs.
func classify(a, b Element) (Kind, Element, Element, error) {
	ta, tb := a.Type(), b.Type()
	switch {
	case isLineType(ta) && isLineType(tb):
		return KindLineLine, a, b, nil
	case isCircleType(ta) && isCircleType(tb):
		return KindCircleCircle, a, b, nil
	case isCircleType(ta) && isLineType(tb):
		return KindCircleLine, a, b, nil
	case isLineType(ta) && isCircleType(tb):
		return KindCircleLine, b, a, nil
	default:
		return KindNone, nil, nil, fmt.Errorf("%w: %s x %s", ErrInvalidPairing, ta, tb)
	}
}

// IntersectionOptions configures CreateIntersection.
type IntersectionOptions struct {
	Attrs
	// PointIDs and PointNames name the owned points in order. Missing
	// entries get generated ids and empty names.
	PointIDs   []string
	PointNames []string
	PointStyle Style
}

// Intersection ties two parent shapes to the one or two fixed points at
// which they meet, and keeps those points and everything below them
// consistent as the parents move.
type Intersection struct {
	ElementBase
	kind    Kind
	impl    intersector
	parentA string
	parentB string
	points  []string
	isReal  bool

	// placed is false until a solve has written coordinates; line-line
	// constructs on parallel lines start unplaced and keep their point
	// blocked by their own id.
	placed bool
}

// CreateIntersection builds the construct for the pair (refA, refB). A
// reference is a string id or an element of this board. If either one does
// not resolve, the construct is registered without points and never
// recomputes. Pairs other than line-line, circle-circle and circle-line
// are rejected with ErrInvalidPairing.
func (b *Board) CreateIntersection(refA, refB any, opts IntersectionOptions) (*Intersection, error) {
	elA, err := b.Resolve(refA)
	if err != nil {
		return nil, fmt.Errorf("create intersection: %w", err)
	}
	elB, err := b.Resolve(refB)
	if err != nil {
		return nil, fmt.Errorf("create intersection: %w", err)
	}

	c := &Intersection{ElementBase: newBase(TypeIntersection, opts.Attrs)}

	if elA == nil || elB == nil {
		if err := b.register(c, typeid.PrefixIntersection); err != nil {
			return nil, fmt.Errorf("create intersection: %w", err)
		}
		if opts.Hidden {
			c.Hide()
		}
		b.logger.Debug("intersection with absent parent", "intersection", c.id)
		return c, nil
	}

	kind, first, second, err := classify(elA, elB)
	if err != nil {
		b.logger.Warn("rejected intersection", "a", elA.ID(), "b", elB.ID(), "error", err)
		return nil, fmt.Errorf("create intersection: %w", err)
	}
	c.kind = kind
	c.impl = intersectorFor(kind)

	n := c.impl.pointCount()
	if err := b.checkFree(append([]string{opts.ID}, firstN(opts.PointIDs, n)...)...); err != nil {
		return nil, fmt.Errorf("create intersection: %w", err)
	}
	if err := b.register(c, typeid.PrefixIntersection); err != nil {
		return nil, fmt.Errorf("create intersection: %w", err)
	}
	c.parentA, c.parentB = first.ID(), second.ID()
	b.AddDependency(first, c)
	b.AddDependency(second, c)

	if kind == KindLineLine {
		if _, err := c.addPoint(0, r2.Point{}, opts); err != nil {
			return nil, err
		}
		c.isReal = true
		sol, _ := c.impl.solve(b.solver, first, second)
		c.writeCoords(sol)
		if !c.placed {
			b.Block(c, c.id)
		}
	} else {
		// both slots exist before the first solve so dependents can refer
		// to the second point while it has no position
		for i := 0; i < n; i++ {
			if _, err := c.addPoint(i, r2.Point{}, opts); err != nil {
				return nil, err
			}
		}
		sol, ok := c.impl.solve(b.solver, first, second)
		if ok && c.impl.real(sol) {
			c.isReal = true
			c.writeCoords(sol)
		} else {
			b.Block(c, c.id)
		}
	}

	if opts.Hidden {
		c.Hide()
	}
	b.logger.Debug("created intersection", "intersection", c.id, "kind", kind, "real", c.isReal)
	return c, nil
}

func (c *Intersection) addPoint(i int, pos r2.Point, opts IntersectionOptions) (*Point, error) {
	attrs := Attrs{Style: opts.PointStyle}
	if i < len(opts.PointIDs) {
		attrs.ID = opts.PointIDs[i]
	}
	if i < len(opts.PointNames) {
		attrs.Name = opts.PointNames[i]
	}
	p, err := c.board.CreatePoint(attrs, pos, true)
	if err != nil {
		return nil, fmt.Errorf("create intersection: %w", err)
	}
	c.board.AddDependency(c, p)
	c.points = append(c.points, p.id)
	return p, nil
}

func firstN(ids []string, n int) []string {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

// Kind returns the classification of the parent pair.
func (c *Intersection) Kind() Kind { return c.kind }

// IsReal reports whether the last recompute found a solution.
func (c *Intersection) IsReal() bool { return c.isReal }

// ParentIDs returns the parent ids; for circle-line the circle comes first.
func (c *Intersection) ParentIDs() (string, string) { return c.parentA, c.parentB }

// PointIDs returns the ids of the owned points.
func (c *Intersection) PointIDs() []string { return append([]string(nil), c.points...) }

// Points returns the owned points in order.
func (c *Intersection) Points() []*Point {
	out := make([]*Point, 0, len(c.points))
	if c.board == nil {
		return out
	}
	for _, id := range c.points {
		if p, ok := c.board.objects[id].(*Point); ok {
			out = append(out, p)
		}
	}
	return out
}

// Update re-solves the construct if a parent changed since the last pass
// and propagates reality transitions to the dependents.
func (c *Intersection) Update() {
	if !c.needsUpdate {
		return
	}
	c.needsUpdate = false
	if c.impl == nil || c.board == nil {
		return
	}

	a, b := c.board.objects[c.parentA], c.board.objects[c.parentB]
	if a == nil || b == nil {
		return
	}
	sol, ok := c.impl.solve(c.board.solver, a, b)
	nowReal := ok && c.impl.real(sol)

	switch {
	case c.isReal && !nowReal:
		c.isReal = false
		c.Block(c.id)
		c.board.logger.Debug("intersection lost its solution", "intersection", c.id, "real", false)
	case !c.isReal && nowReal:
		c.isReal = true
		c.writeCoords(sol)
		c.Unblock(c.id)
		c.board.logger.Debug("intersection regained its solution", "intersection", c.id, "real", true)
	case nowReal:
		wasPlaced := c.placed
		c.writeCoords(sol)
		if !wasPlaced && c.placed {
			c.Unblock(c.id)
			c.board.logger.Debug("intersection placed", "intersection", c.id)
		}
	}
}

// writeCoords stores solution i in point slot i. Slots whose point was
// removed are skipped.
func (c *Intersection) writeCoords(sol geom.Solution) {
	if sol.Count == 0 || c.board == nil {
		return
	}
	for i, id := range c.points {
		if p, ok := c.board.objects[id].(*Point); ok {
			p.SetCoords(sol.Points[i])
		}
	}
	c.placed = true
}

// Block records ancestorID as blocking this construct and its dependents.
func (c *Intersection) Block(ancestorID string) {
	if c.board != nil {
		c.board.Block(c, ancestorID)
	}
}

// Unblock clears ancestorID across the whole board.
func (c *Intersection) Unblock(ancestorID string) {
	if c.board != nil {
		c.board.Unblock(ancestorID)
	}
}

// Hide hides the construct and its points.
func (c *Intersection) Hide() {
	c.visible = false
	for _, p := range c.Points() {
		p.Hide()
	}
}

// Show shows the construct and its points. Points of a construct without a
// solution stay out of view until it is real again.
func (c *Intersection) Show() {
	c.visible = true
	for _, p := range c.Points() {
		p.Show()
	}
}

// HasPoint is always false: only the owned points can be hit.
func (c *Intersection) HasPoint(r2.Point, float64) bool { return false }

// Remove deletes the construct from its board together with its points and
// whatever was built on them.
func (c *Intersection) Remove() ([]string, error) {
	if c.board == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, c.id)
	}
	return c.board.RemoveElement(c.id)
}
