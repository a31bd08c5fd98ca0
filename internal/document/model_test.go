package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlScene = `
scene:
  id: scene_demo
  name: Demo
  width: 400
  height: 400
  boundingBox: [-10, 10, 10, -10]
elements:
  - {id: A, type: point, x: 0, y: 0}
  - {id: B, type: point, x: 8, y: 0}
  - {id: c1, type: circle, parents: [A], radius: 5}
  - {id: c2, type: circle, parents: [B], radius: 5}
  - id: cc
    type: intersection
    parents: [c1, c2]
    points: [P, Q]
  - {id: lab, type: label, parents: [P], text: P, hidden: true}
`

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(yamlScene))
	require.NoError(t, err)

	assert.Equal(t, "scene_demo", doc.Scene.ID)
	assert.Equal(t, [4]float64{-10, 10, 10, -10}, doc.Scene.BoundingBox)
	require.Len(t, doc.Elements, 6)
	assert.Equal(t, ElementTypeIntersection, doc.Elements[4].Type)
	assert.Equal(t, []string{"P", "Q"}, doc.Elements[4].Points)
	assert.True(t, doc.Elements[5].Hidden)
	assert.Equal(t, 4, doc.Index("cc"))
	assert.Equal(t, -1, doc.Index("nope"))
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlScene), 0o644))
	doc, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, doc.Elements, 6)

	jsonPath := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"scene":{"id":"s"},"elements":[{"id":"A","type":"point","x":1}]}`), 0o644))
	doc, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1.0, doc.Elements[0].X)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRemoveAndClone(t *testing.T) {
	doc := NewSampleDocument("scene_x")
	clone := doc.Clone()

	doc.Remove([]string{"cc", "lP", "lQ", "PQ"})
	assert.Equal(t, -1, doc.Index("cc"))
	assert.Equal(t, 0, doc.Index("A"))
	assert.NotEqual(t, -1, clone.Index("cc"))

	clone.Elements[0].Parents = append(clone.Elements[0].Parents, "x")
	assert.Empty(t, doc.Elements[0].Parents)
}
