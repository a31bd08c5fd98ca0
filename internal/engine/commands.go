package engine

import (
	"encoding/json"
	"math"

	"github.com/golang/geo/r2"

	"github.com/inamate/geoscene/internal/geom"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// Geometry is in user coordinates; Transform maps it onto the canvas.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "point", "path", "circle", "arc", "text"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] view matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	At          []float64     `json:"at,omitempty"`          // [x, y] for points, text and circle centers
	Radius      float64       `json:"radius,omitempty"`      // Circle and arc radius
	StartAngle  float64       `json:"startAngle,omitempty"`  // Arc start, radians
	Sweep       float64       `json:"sweep,omitempty"`       // Arc counter-clockwise sweep, radians
	Arrow       bool          `json:"arrow,omitempty"`       // Draw an arrow head at the end of the path
	Text        string        `json:"text,omitempty"`        // Label text
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Size        float64       `json:"size,omitempty"`        // Point size
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y].
type PathCommand []interface{}

var defaultStyles = map[ElementType]Style{
	TypePoint:  {Fill: "#ff0000", Stroke: "#ff0000", Size: 3},
	TypeLine:   {Stroke: "#0000ff", StrokeWidth: 2},
	TypeArrow:  {Stroke: "#0000ff", StrokeWidth: 2},
	TypeCircle: {Stroke: "#0000ff", StrokeWidth: 2},
	TypeArc:    {Stroke: "#0000ff", StrokeWidth: 2},
	TypeLabel:  {Fill: "#000000"},
}

func styleOf(el Element) Style {
	s := el.Base().style
	d := defaultStyles[el.Type()]
	if s.Fill == "" {
		s.Fill = d.Fill
	}
	if s.Stroke == "" {
		s.Stroke = d.Stroke
	}
	if s.StrokeWidth == 0 {
		s.StrokeWidth = d.StrokeWidth
	}
	if s.Size == 0 {
		s.Size = d.Size
	}
	return s
}

// CompileDrawCommands generates a draw command buffer from the board.
// Commands are in painter's order: curves, then labels, then points.
// Hidden elements and intersection constructs produce nothing.
func CompileDrawCommands(b *Board, view geom.Matrix2D, box Rect) []DrawCommand {
	if b == nil {
		return nil
	}

	var curves, labels, points []DrawCommand
	for _, el := range b.Elements() {
		if !el.Base().shown {
			continue
		}
		cmd, ok := compileElement(el, box)
		if !ok {
			continue
		}
		cmd.Transform = view.ToSlice()
		switch el.Type() {
		case TypePoint:
			points = append(points, cmd)
		case TypeLabel:
			labels = append(labels, cmd)
		default:
			curves = append(curves, cmd)
		}
	}

	commands := make([]DrawCommand, 0, len(curves)+len(labels)+len(points))
	commands = append(commands, curves...)
	commands = append(commands, labels...)
	return append(commands, points...)
}

func compileElement(el Element, box Rect) (DrawCommand, bool) {
	style := styleOf(el)
	cmd := DrawCommand{
		ObjectID:    el.ID(),
		Fill:        style.Fill,
		Stroke:      style.Stroke,
		StrokeWidth: style.StrokeWidth,
	}

	switch e := el.(type) {
	case *Point:
		if !geom.Finite(e.pos) {
			return cmd, false
		}
		cmd.Op = "point"
		cmd.At = []float64{e.pos.X, e.pos.Y}
		cmd.Size = style.Size

	case *Line:
		shape, ok := e.LineShape()
		if !ok || shape.Degenerate(geom.DefaultEpsilon) {
			return cmd, false
		}
		from, to := shape.P1, shape.P2
		if !e.arrow {
			from, to = extendToBox(shape, box)
		}
		cmd.Op = "path"
		cmd.Arrow = e.arrow
		cmd.Path = []PathCommand{
			{"M", from.X, from.Y},
			{"L", to.X, to.Y},
		}

	case *Circle:
		shape, ok := e.CircleShape()
		if !ok {
			return cmd, false
		}
		cmd.Op = "circle"
		cmd.At = []float64{shape.Center.X, shape.Center.Y}
		cmd.Radius = shape.Radius

	case *Arc:
		shape, ok := e.CircleShape()
		start, sweep, ok2 := e.Angles()
		if !ok || !ok2 {
			return cmd, false
		}
		cmd.Op = "arc"
		cmd.At = []float64{shape.Center.X, shape.Center.Y}
		cmd.Radius = shape.Radius
		cmd.StartAngle = start
		cmd.Sweep = sweep

	case *Label:
		pos, ok := e.Position()
		if !ok {
			return cmd, false
		}
		cmd.Op = "text"
		cmd.At = []float64{pos.X, pos.Y}
		cmd.Text = e.text
		cmd.Stroke = ""

	default:
		return cmd, false
	}
	return cmd, true
}

// extendToBox stretches the defining segment of l far enough to cross the
// whole visible box.
func extendToBox(l geom.Line, box Rect) (r2.Point, r2.Point) {
	d := l.Direction()
	cx, cy := box.Center()
	reach := box.Diagonal() + geom.Distance(l.P1, r2.Point{X: cx, Y: cy})
	if reach == 0 || math.IsInf(reach, 0) {
		return l.P1, l.P2
	}
	u := d.Normalize().Mul(reach)
	return l.P1.Sub(u), l.P1.Add(u)
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// ElementBounds returns the user-space bounding box of an element.
func ElementBounds(el Element, tol float64) Rect {
	switch e := el.(type) {
	case *Point:
		return RectAround(e.pos, tol)
	case *Line:
		shape, ok := e.LineShape()
		if !ok {
			return Rect{}
		}
		return RectAround(shape.P1, tol).Union(RectAround(shape.P2, tol))
	case *Circle:
		shape, ok := e.CircleShape()
		if !ok {
			return Rect{}
		}
		return RectAround(shape.Center, shape.Radius)
	case *Arc:
		shape, ok := e.CircleShape()
		if !ok {
			return Rect{}
		}
		return RectAround(shape.Center, shape.Radius)
	case *Label:
		pos, ok := e.Position()
		if !ok {
			return Rect{}
		}
		return RectAround(pos, tol)
	case *Intersection:
		var r Rect
		for _, p := range e.Points() {
			if p.shown {
				r = r.Union(RectAround(p.pos, tol))
			}
		}
		return r
	default:
		return Rect{}
	}
}

// GetSelectionBounds returns the combined bounding box of the given ids.
func GetSelectionBounds(b *Board, ids []string) Rect {
	if b == nil || len(ids) == 0 {
		return Rect{}
	}

	var result Rect
	for _, id := range ids {
		el := b.Get(id)
		if el == nil {
			continue
		}
		result = result.Union(ElementBounds(el, b.hitTolerance))
	}
	return result
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
