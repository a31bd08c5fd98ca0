package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser         = "user"
	PrefixScene        = "scene"
	PrefixSnapshot     = "snap"
	PrefixOp           = "op"
	PrefixPoint        = "pt"
	PrefixLine         = "line"
	PrefixArrow        = "arrow"
	PrefixCircle       = "circ"
	PrefixArc          = "arc"
	PrefixLabel        = "label"
	PrefixIntersection = "isect"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string         { return New(PrefixUser) }
func NewSceneID() string        { return New(PrefixScene) }
func NewSnapshotID() string     { return New(PrefixSnapshot) }
func NewOpID() string           { return New(PrefixOp) }
func NewIntersectionID() string { return New(PrefixIntersection) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
