package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang/geo/r2"

	"github.com/inamate/geoscene/internal/geom"
	"github.com/inamate/geoscene/internal/typeid"
)

var (
	ErrNotFound         = errors.New("element not found")
	ErrDuplicateID      = errors.New("duplicate element id")
	ErrFixedPoint       = errors.New("point is fixed")
	ErrInvalidReference = errors.New("invalid element reference")
	ErrInvalidPairing   = errors.New("unsupported intersection pairing")
	ErrWrongType        = errors.New("wrong element type")
	ErrUnknownType      = errors.New("unknown element type")
	ErrInvalidDef       = errors.New("invalid element definition")
)

// DefaultHitTolerance is the hit radius in user units.
const DefaultHitTolerance = 0.25

// Board is the scene registry. It owns every element, assigns ids, keeps
// the parent/child dependency edges and drives update passes.
//
// Elements are kept in creation order. A child can only be created after
// its parents, so walking that order recomputes parents before children.
type Board struct {
	solver       geom.Solver
	hitTolerance float64
	logger       *slog.Logger

	objects map[string]Element
	order   []string
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithSolver replaces the analytic solver.
func WithSolver(s geom.Solver) BoardOption {
	return func(b *Board) { b.solver = s }
}

// WithHitTolerance sets the hit radius in user units.
func WithHitTolerance(tol float64) BoardOption {
	return func(b *Board) {
		if tol > 0 {
			b.hitTolerance = tol
		}
	}
}

// WithLogger sets the logger used for construction and reality changes.
func WithLogger(l *slog.Logger) BoardOption {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBoard creates an empty board.
func NewBoard(opts ...BoardOption) *Board {
	b := &Board{
		solver:       geom.NewAnalytic(geom.DefaultEpsilon),
		hitTolerance: DefaultHitTolerance,
		logger:       slog.Default(),
		objects:      make(map[string]Element),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Solver returns the solver constructs use.
func (b *Board) Solver() geom.Solver { return b.solver }

// Get returns the element with the given id, or nil.
func (b *Board) Get(id string) Element {
	return b.objects[id]
}

// Len returns the number of registered elements.
func (b *Board) Len() int { return len(b.order) }

// Elements returns every element in creation order.
func (b *Board) Elements() []Element {
	out := make([]Element, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.objects[id])
	}
	return out
}

// Resolve turns a loosely typed reference into an element. Strings are
// looked up by id; elements must belong to this board. An unknown id or a
// nil reference resolves to nil without error.
func (b *Board) Resolve(ref any) (Element, error) {
	switch r := ref.(type) {
	case nil:
		return nil, nil
	case string:
		if r == "" {
			return nil, nil
		}
		return b.objects[r], nil
	case Element:
		if r == nil || r.Base().board != b {
			return nil, nil
		}
		if b.objects[r.ID()] == nil {
			return nil, nil
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidReference, ref)
	}
}

// register assigns an id when none was given and adds el to the registry.
func (b *Board) register(el Element, prefix string) error {
	base := el.Base()
	if base.id == "" {
		base.id = typeid.New(prefix)
	}
	if _, exists := b.objects[base.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, base.id)
	}
	base.board = b
	b.objects[base.id] = el
	b.order = append(b.order, base.id)
	return nil
}

// checkFree fails if any of ids is already taken or repeated.
func (b *Board) checkFree(ids ...string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, exists := b.objects[id]; exists || seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return nil
}

// AddDependency records that child depends on parent. The child inherits
// the parent's blocking ancestors, so an element created below a construct
// without a solution starts out of view.
func (b *Board) AddDependency(parent, child Element) {
	pb, cb := parent.Base(), child.Base()
	pb.addChild(cb.id)
	for _, p := range cb.parents {
		if p == pb.id {
			return
		}
	}
	cb.parents = append(cb.parents, pb.id)

	if len(pb.blocking) == 0 {
		return
	}
	for id := range pb.blocking {
		cb.blocking[id] = struct{}{}
	}
	if child.Type() != TypeIntersection {
		cb.suppress()
	}
}

// Descendants returns every element whose dependency chain passes through
// el, in creation order.
func (b *Board) Descendants(el Element) []Element {
	seen := make(map[string]bool)
	queue := append([]string(nil), el.Base().children...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		if child := b.objects[id]; child != nil {
			queue = append(queue, child.Base().children...)
		}
	}

	out := make([]Element, 0, len(seen))
	for _, id := range b.order {
		if seen[id] {
			out = append(out, b.objects[id])
		}
	}
	return out
}

// MarkDirty flags el and all its descendants for recomputation.
func (b *Board) MarkDirty(el Element) {
	el.Base().needsUpdate = true
	for _, d := range b.Descendants(el) {
		d.Base().needsUpdate = true
	}
}

// Update runs one update pass: every dirty element recomputes, parents
// before children.
func (b *Board) Update() {
	for _, id := range append([]string(nil), b.order...) {
		el := b.objects[id]
		if el == nil || !el.Base().needsUpdate {
			continue
		}
		el.Update()
	}
}

// MovePoint drags a free point to p and runs an update pass.
func (b *Board) MovePoint(id string, p r2.Point) error {
	pt, err := b.point(id)
	if err != nil {
		return err
	}
	if pt.fixed {
		return fmt.Errorf("%w: %s", ErrFixedPoint, id)
	}
	pt.setCoords(p)
	b.MarkDirty(pt)
	b.Update()
	return nil
}

// Transform applies m to the given free points, or to the free points a
// given element is built from, and runs a single update pass.
func (b *Board) Transform(ids []string, m geom.Matrix2D) error {
	targets := make(map[string]*Point)
	var order []string
	for _, id := range ids {
		el := b.objects[id]
		if el == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		for _, pt := range b.freePoints(el) {
			if _, ok := targets[pt.id]; !ok {
				targets[pt.id] = pt
				order = append(order, pt.id)
			}
		}
	}
	if len(order) == 0 {
		return fmt.Errorf("%w: nothing to transform", ErrFixedPoint)
	}

	for _, id := range order {
		pt := targets[id]
		pt.setCoords(m.Apply(pt.pos))
		b.MarkDirty(pt)
	}
	for _, id := range ids {
		if c, ok := b.objects[id].(*Circle); ok && c.centerOnly() {
			c.radius *= m.ScaleFactor()
			b.MarkDirty(c)
		}
	}
	b.Update()
	return nil
}

// freePoints returns the draggable points el is defined by.
func (b *Board) freePoints(el Element) []*Point {
	if pt, ok := el.(*Point); ok {
		if pt.fixed {
			return nil
		}
		return []*Point{pt}
	}
	if el.Type() == TypeIntersection {
		return nil
	}
	var out []*Point
	for _, pid := range el.Base().parents {
		if pt, ok := b.objects[pid].(*Point); ok && !pt.fixed {
			out = append(out, pt)
		}
	}
	return out
}

// RemoveElement removes the element and, transitively, everything that
// depends on it. It returns the removed ids in creation order.
func (b *Board) RemoveElement(id string) ([]string, error) {
	el := b.objects[id]
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	doomed := append([]Element{el}, b.Descendants(el)...)
	gone := make(map[string]bool, len(doomed))
	for _, d := range doomed {
		gone[d.ID()] = true
	}

	for _, d := range doomed {
		for _, pid := range d.Base().parents {
			if gone[pid] {
				continue
			}
			if parent := b.objects[pid]; parent != nil {
				parent.Base().removeChild(d.ID())
			}
		}
		delete(b.objects, d.ID())
		d.Base().board = nil
	}

	removed := make([]string, 0, len(doomed))
	order := b.order[:0]
	for _, oid := range b.order {
		if gone[oid] {
			removed = append(removed, oid)
			continue
		}
		order = append(order, oid)
	}
	b.order = order
	return removed, nil
}

// HitTest returns the id of the topmost shown element at p, or "".
// Points win over curves so they stay draggable where curves cross.
func (b *Board) HitTest(p r2.Point) string {
	for pass := 0; pass < 2; pass++ {
		for i := len(b.order) - 1; i >= 0; i-- {
			el := b.objects[b.order[i]]
			if !el.Base().shown {
				continue
			}
			if (el.Type() == TypePoint) != (pass == 0) {
				continue
			}
			if el.HasPoint(p, b.hitTolerance) {
				return el.ID()
			}
		}
	}
	return ""
}

func (b *Board) point(id string) (*Point, error) {
	el := b.objects[id]
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	pt, ok := el.(*Point)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a point", ErrWrongType, id, el.Type())
	}
	return pt, nil
}

// coords returns the coordinates of the point with the given id.
func (b *Board) coords(id string) (r2.Point, bool) {
	pt, ok := b.objects[id].(*Point)
	if !ok {
		return r2.Point{}, false
	}
	return pt.pos, true
}
