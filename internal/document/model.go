package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type SceneDocument struct {
	Scene    Scene        `json:"scene" yaml:"scene"`
	Elements []ElementDef `json:"elements" yaml:"elements"`
}

type Scene struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Width      int    `json:"width" yaml:"width"`
	Height     int    `json:"height" yaml:"height"`
	Background string `json:"background" yaml:"background"`
	// BoundingBox is the visible user-space region as (xmin, ymax, xmax, ymin).
	BoundingBox [4]float64 `json:"boundingBox" yaml:"boundingBox"`
}

type ElementType string

const (
	ElementTypePoint        ElementType = "point"
	ElementTypeLine         ElementType = "line"
	ElementTypeArrow        ElementType = "arrow"
	ElementTypeCircle       ElementType = "circle"
	ElementTypeArc          ElementType = "arc"
	ElementTypeLabel        ElementType = "label"
	ElementTypeIntersection ElementType = "intersection"
)

type Style struct {
	Fill        string  `json:"fill,omitempty" yaml:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`
	Size        float64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// ElementDef describes one element. Parents reference earlier elements by id:
//
//	point         no parents; X, Y
//	line, arrow   two points
//	circle        center point, plus a point on the circle or Radius
//	arc           center, radius point, angle point
//	label         anchor point; Text, OffsetX, OffsetY
//	intersection  two lines/circles; Points names the owned point ids
type ElementDef struct {
	ID         string      `json:"id" yaml:"id"`
	Type       ElementType `json:"type" yaml:"type"`
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	Parents    []string    `json:"parents,omitempty" yaml:"parents,omitempty"`
	X          float64     `json:"x,omitempty" yaml:"x,omitempty"`
	Y          float64     `json:"y,omitempty" yaml:"y,omitempty"`
	Radius     float64     `json:"radius,omitempty" yaml:"radius,omitempty"`
	Text       string      `json:"text,omitempty" yaml:"text,omitempty"`
	OffsetX    float64     `json:"offsetX,omitempty" yaml:"offsetX,omitempty"`
	OffsetY    float64     `json:"offsetY,omitempty" yaml:"offsetY,omitempty"`
	Points     []string    `json:"points,omitempty" yaml:"points,omitempty"`
	PointNames []string    `json:"pointNames,omitempty" yaml:"pointNames,omitempty"`
	Hidden     bool        `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Style      Style       `json:"style,omitempty" yaml:"style,omitempty"`
}

// Parse decodes a JSON scene document.
func Parse(data []byte) (*SceneDocument, error) {
	var doc SceneDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scene json: %w", err)
	}
	return &doc, nil
}

// ParseYAML decodes a YAML scene document.
func ParseYAML(data []byte) (*SceneDocument, error) {
	var doc SceneDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scene yaml: %w", err)
	}
	return &doc, nil
}

// LoadFile reads a scene document, choosing the decoder by extension.
func LoadFile(path string) (*SceneDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Index returns the position of the element with the given id, or -1.
func (d *SceneDocument) Index(id string) int {
	for i, el := range d.Elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}

// Remove drops the elements with the given ids, keeping the order of the rest.
func (d *SceneDocument) Remove(ids []string) {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	out := d.Elements[:0]
	for _, el := range d.Elements {
		if !gone[el.ID] {
			out = append(out, el)
		}
	}
	d.Elements = out
}

// Clone returns a deep copy of the document.
func (d *SceneDocument) Clone() *SceneDocument {
	out := &SceneDocument{Scene: d.Scene, Elements: make([]ElementDef, len(d.Elements))}
	for i, el := range d.Elements {
		el.Parents = append([]string(nil), el.Parents...)
		el.Points = append([]string(nil), el.Points...)
		el.PointNames = append([]string(nil), el.PointNames...)
		out.Elements[i] = el
	}
	return out
}

// NewEmptyDocument creates an empty document for a new scene
func NewEmptyDocument(sceneID, name string) *SceneDocument {
	return &SceneDocument{
		Scene: Scene{
			ID:          sceneID,
			Name:        name,
			Width:       800,
			Height:      800,
			Background:  "#ffffff",
			BoundingBox: [4]float64{-10, 10, 10, -10},
		},
		Elements: []ElementDef{},
	}
}
