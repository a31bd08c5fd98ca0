package engine

import (
	"sort"

	"github.com/golang/geo/r2"
)

// ElementType identifies the kind of a scene element.
type ElementType string

const (
	TypePoint        ElementType = "point"
	TypeLine         ElementType = "line"
	TypeArrow        ElementType = "arrow"
	TypeCircle       ElementType = "circle"
	TypeArc          ElementType = "arc"
	TypeLabel        ElementType = "label"
	TypeIntersection ElementType = "intersection"
)

// Element is anything registered on a Board.
type Element interface {
	ID() string
	Type() ElementType
	Base() *ElementBase

	// Update recomputes derived state. It is a no-op unless the element
	// was marked dirty by the board.
	Update()

	// HasPoint reports whether p (user coordinates) hits the element.
	HasPoint(p r2.Point, tol float64) bool

	// Hide and Show change the user visibility intent.
	Hide()
	Show()
}

// Attrs are the attributes shared by every element constructor.
type Attrs struct {
	ID     string
	Name   string
	Hidden bool
	Style  Style
}

// Style holds the presentation attributes forwarded to draw commands.
type Style struct {
	Stroke      string  `json:"stroke,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Size        float64 `json:"size,omitempty"`
}

// ElementBase carries the registry bookkeeping every element shares:
// identity, dependency edges, the dirty flag, visibility intent and the
// set of blocking ancestors.
//
// An element is shown iff its intent is visible and no ancestor blocks it.
// Constructs that lose their solution keep their points out of view by
// blocking them with their own id, so shown never needs a separate
// "real" input.
type ElementBase struct {
	board *Board
	id    string
	name  string
	typ   ElementType
	style Style

	visible     bool
	shown       bool
	needsUpdate bool
	blocking    map[string]struct{}

	parents  []string
	children []string
}

func newBase(typ ElementType, attrs Attrs) ElementBase {
	return ElementBase{
		id:       attrs.ID,
		name:     attrs.Name,
		typ:      typ,
		style:    attrs.Style,
		visible:  true,
		shown:    true,
		blocking: make(map[string]struct{}),
	}
}

func (b *ElementBase) ID() string         { return b.id }
func (b *ElementBase) Name() string       { return b.name }
func (b *ElementBase) Type() ElementType  { return b.typ }
func (b *ElementBase) Base() *ElementBase { return b }
func (b *ElementBase) Style() Style       { return b.style }

// Visible reports the user visibility intent.
func (b *ElementBase) Visible() bool { return b.visible }

// Shown reports whether the element is currently rendered.
func (b *ElementBase) Shown() bool { return b.shown }

// NeedsUpdate reports whether the element is waiting for a recompute.
func (b *ElementBase) NeedsUpdate() bool { return b.needsUpdate }

// Parents returns the ids this element depends on.
func (b *ElementBase) Parents() []string { return append([]string(nil), b.parents...) }

// Children returns the ids of the direct dependents.
func (b *ElementBase) Children() []string { return append([]string(nil), b.children...) }

// BlockingAncestors returns the sorted ids of the ancestors currently
// keeping this element out of view.
func (b *ElementBase) BlockingAncestors() []string {
	ids := make([]string, 0, len(b.blocking))
	for id := range b.blocking {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BlockedBy reports whether ancestorID is one of the blocking ancestors.
func (b *ElementBase) BlockedBy(ancestorID string) bool {
	_, ok := b.blocking[ancestorID]
	return ok
}

// Hide records the intent to hide the element.
func (b *ElementBase) Hide() {
	b.visible = false
	b.shown = false
}

// Show records the intent to show the element. It only becomes visible
// once every blocking ancestor has cleared.
func (b *ElementBase) Show() {
	b.visible = true
	b.shown = len(b.blocking) == 0
}

// Update clears the dirty flag. Elements with derived state override it.
func (b *ElementBase) Update() {
	b.needsUpdate = false
}

// HasPoint is the default for elements that are never hit.
func (b *ElementBase) HasPoint(r2.Point, float64) bool { return false }

// suppress takes the element out of view without touching the intent.
func (b *ElementBase) suppress() {
	b.shown = false
}

func (b *ElementBase) addChild(id string) {
	for _, c := range b.children {
		if c == id {
			return
		}
	}
	b.children = append(b.children, id)
}

func (b *ElementBase) removeChild(id string) {
	out := b.children[:0]
	for _, c := range b.children {
		if c != id {
			out = append(out, c)
		}
	}
	b.children = out
}
