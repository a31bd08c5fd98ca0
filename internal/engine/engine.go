package engine

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/geom"
)

var defaultBox = [4]float64{-10, 10, 10, -10}

// Engine owns a scene document and the board built from it. Every
// mutation goes through the engine so the document stays the persisted
// form of the board.
type Engine struct {
	doc       *document.SceneDocument
	board     *Board
	boardOpts []BoardOption

	// view maps user coordinates onto the canvas
	view geom.Matrix2D
	box  Rect

	// Selection state (backend owns this)
	selection []string
}

// NewEngine creates a new engine instance. The options are applied to
// every board the engine builds.
func NewEngine(opts ...BoardOption) *Engine {
	return &Engine{
		boardOpts: opts,
		board:     NewBoard(opts...),
		view:      geom.Identity(),
		box:       RectFromBox(defaultBox),
	}
}

// --- Commands ---

// LoadDocument loads a document from JSON.
func (e *Engine) LoadDocument(jsonData string) error {
	doc, err := document.Parse([]byte(jsonData))
	if err != nil {
		return err
	}
	return e.SetDocument(doc)
}

// LoadDocumentYAML loads a document from YAML.
func (e *Engine) LoadDocumentYAML(data []byte) error {
	doc, err := document.ParseYAML(data)
	if err != nil {
		return err
	}
	return e.SetDocument(doc)
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(sceneID string) {
	if err := e.SetDocument(document.NewSampleDocument(sceneID)); err != nil {
		panic(fmt.Sprintf("sample document: %v", err))
	}
}

// SetDocument builds a fresh board from a copy of doc; the caller's
// document is never modified. The engine keeps the copy, with generated ids
// filled in, only when every element builds. On error the engine keeps its
// previous state.
func (e *Engine) SetDocument(doc *document.SceneDocument) error {
	next := doc.Clone()
	board := NewBoard(e.boardOpts...)
	for i := range next.Elements {
		if err := createFromDef(board, &next.Elements[i]); err != nil {
			return err
		}
	}

	e.doc = next
	e.board = board
	e.selection = nil
	e.updateView()
	return nil
}

func (e *Engine) updateView() {
	box := e.doc.Scene.BoundingBox
	if box == [4]float64{} {
		box = defaultBox
	}
	w, h := float64(e.doc.Scene.Width), float64(e.doc.Scene.Height)
	if w <= 0 || h <= 0 {
		w, h = 800, 800
	}
	e.box = RectFromBox(box)
	e.view = geom.ViewMatrix(box, w, h)
}

// createFromDef adds the element described by def to b. Generated ids are
// written back into def so the document stays stable across reloads.
func createFromDef(b *Board, def *document.ElementDef) error {
	attrs := Attrs{
		ID:     def.ID,
		Name:   def.Name,
		Hidden: def.Hidden,
		Style: Style{
			Stroke:      def.Style.Stroke,
			Fill:        def.Style.Fill,
			StrokeWidth: def.Style.StrokeWidth,
			Size:        def.Style.Size,
		},
	}
	parents := def.Parents
	need := func(n ...int) error {
		for _, c := range n {
			if len(parents) == c {
				return nil
			}
		}
		return fmt.Errorf("%w: %s %q takes %v parents, got %d", ErrInvalidDef, def.Type, def.ID, n, len(parents))
	}

	var (
		el  Element
		err error
	)
	switch def.Type {
	case document.ElementTypePoint:
		el, err = b.CreatePoint(attrs, r2.Point{X: def.X, Y: def.Y}, false)
	case document.ElementTypeLine, document.ElementTypeArrow:
		if err := need(2); err != nil {
			return err
		}
		if def.Type == document.ElementTypeArrow {
			el, err = b.CreateArrow(attrs, parents[0], parents[1])
		} else {
			el, err = b.CreateLine(attrs, parents[0], parents[1])
		}
	case document.ElementTypeCircle:
		if err := need(1, 2); err != nil {
			return err
		}
		if len(parents) == 1 {
			el, err = b.CreateCircle(attrs, parents[0], def.Radius)
		} else {
			el, err = b.CreateCircleThrough(attrs, parents[0], parents[1])
		}
	case document.ElementTypeArc:
		if err := need(3); err != nil {
			return err
		}
		el, err = b.CreateArc(attrs, parents[0], parents[1], parents[2])
	case document.ElementTypeLabel:
		if err := need(1); err != nil {
			return err
		}
		el, err = b.CreateLabel(attrs, parents[0], def.Text, r2.Point{X: def.OffsetX, Y: def.OffsetY})
	case document.ElementTypeIntersection:
		if err := need(2); err != nil {
			return err
		}
		var c *Intersection
		c, err = b.CreateIntersection(parents[0], parents[1], IntersectionOptions{
			Attrs:      attrs,
			PointIDs:   def.Points,
			PointNames: def.PointNames,
		})
		if err == nil {
			def.Points = c.PointIDs()
			el = c
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, def.Type)
	}
	if err != nil {
		return fmt.Errorf("element %q: %w", def.ID, err)
	}

	def.ID = el.ID()
	return nil
}

// MoveElement drags a free point to (x, y) in user coordinates.
func (e *Engine) MoveElement(id string, x, y float64) error {
	if err := e.board.MovePoint(id, r2.Point{X: x, Y: y}); err != nil {
		return err
	}
	e.syncDocument()
	return nil
}

// TransformElements applies m to the free points behind ids.
func (e *Engine) TransformElements(ids []string, m geom.Matrix2D) error {
	if err := e.board.Transform(ids, m); err != nil {
		return err
	}
	e.syncDocument()
	return nil
}

// SetVisibility changes the visibility intent of an element.
func (e *Engine) SetVisibility(id string, visible bool) error {
	el := e.board.Get(id)
	if el == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if visible {
		el.Show()
	} else {
		el.Hide()
	}
	if e.doc != nil {
		if i := e.doc.Index(id); i >= 0 {
			e.doc.Elements[i].Hidden = !visible
		}
	}
	return nil
}

// RemoveElement removes an element and everything built on it. Points
// owned by an intersection can only go together with their construct.
func (e *Engine) RemoveElement(id string) ([]string, error) {
	if pt, ok := e.board.Get(id).(*Point); ok && pt.fixed {
		return nil, fmt.Errorf("%w: %s belongs to an intersection", ErrFixedPoint, id)
	}
	removed, err := e.board.RemoveElement(id)
	if err != nil {
		return nil, err
	}
	if e.doc != nil {
		e.doc.Remove(removed)
	}
	e.selection = nil
	return removed, nil
}

// CreateElement adds a new element to the scene and returns its id.
func (e *Engine) CreateElement(def document.ElementDef) (string, error) {
	if e.doc == nil {
		e.doc = document.NewEmptyDocument("", "")
		e.updateView()
	}
	if err := createFromDef(e.board, &def); err != nil {
		return "", err
	}
	e.doc.Elements = append(e.doc.Elements, def)
	return def.ID, nil
}

// syncDocument copies free point positions and numeric radii back into
// the document.
func (e *Engine) syncDocument() {
	if e.doc == nil {
		return
	}
	for i := range e.doc.Elements {
		def := &e.doc.Elements[i]
		switch el := e.board.Get(def.ID).(type) {
		case *Point:
			def.X, def.Y = el.pos.X, el.pos.Y
		case *Circle:
			if el.centerOnly() {
				def.Radius = el.radius
			}
		}
	}
}

// SetSelection sets the selected element IDs.
func (e *Engine) SetSelection(ids []string) {
	e.selection = ids
}

// --- Queries ---

// Board returns the board of the loaded document.
func (e *Engine) Board() *Board { return e.board }

// Document returns the current document. Callers must not mutate it.
func (e *Engine) Document() *document.SceneDocument { return e.doc }

// View returns the user-to-canvas matrix.
func (e *Engine) View() geom.Matrix2D { return e.view }

// Render compiles the shown elements into draw commands as JSON.
func (e *Engine) Render() string {
	if e.doc == nil {
		return "[]"
	}
	commands := CompileDrawCommands(e.board, e.view, e.box)
	result, _ := DrawCommandsToJSON(commands)
	return result
}

// HitTest performs a hit test at the given canvas coordinates.
// Returns the element ID of the topmost hit, or empty string.
func (e *Engine) HitTest(x, y float64) string {
	p := e.view.Invert().Apply(r2.Point{X: x, Y: y})
	return e.board.HitTest(p)
}

// GetSelectionBounds returns the bounding box of the current selection as JSON.
func (e *Engine) GetSelectionBounds() string {
	if len(e.selection) == 0 {
		return RectToJSON(Rect{})
	}
	return RectToJSON(GetSelectionBounds(e.board, e.selection))
}

// GetScene returns the current scene metadata as JSON.
func (e *Engine) GetScene() string {
	if e.doc == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.doc.Scene)
	return string(data)
}

// GetDocument returns the full document as JSON.
func (e *Engine) GetDocument() string {
	if e.doc == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.doc)
	return string(data)
}

// GetSelection returns the current selection as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.selection)
	return string(data)
}

// ElementState is the observable state of one element.
type ElementState struct {
	ID       string      `json:"id"`
	Type     ElementType `json:"type"`
	Name     string      `json:"name,omitempty"`
	Visible  bool        `json:"visible"`
	Shown    bool        `json:"shown"`
	Real     *bool       `json:"real,omitempty"`
	Kind     string      `json:"kind,omitempty"`
	At       []float64   `json:"at,omitempty"`
	Fixed    bool        `json:"fixed,omitempty"`
	Blocking []string    `json:"blocking,omitempty"`
	Parents  []string    `json:"parents,omitempty"`
	Points   []string    `json:"points,omitempty"`
}

// State returns the state of every element in creation order.
func (e *Engine) State() []ElementState {
	out := make([]ElementState, 0, e.board.Len())
	for _, el := range e.board.Elements() {
		out = append(out, stateOf(el))
	}
	return out
}

// GetState returns State as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(e.State())
	return string(data)
}

func stateOf(el Element) ElementState {
	base := el.Base()
	s := ElementState{
		ID:       base.id,
		Type:     base.typ,
		Name:     base.name,
		Visible:  base.visible,
		Shown:    base.shown,
		Blocking: base.BlockingAncestors(),
		Parents:  base.Parents(),
	}
	switch e := el.(type) {
	case *Point:
		s.At = []float64{e.pos.X, e.pos.Y}
		s.Fixed = e.fixed
	case *Intersection:
		isReal := e.isReal
		s.Real = &isReal
		s.Kind = e.kind.String()
		s.Points = e.PointIDs()
		s.Shown = false
	}
	return s
}
