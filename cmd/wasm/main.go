//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/engine"
	"github.com/inamate/geoscene/internal/geom"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	geoEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	geoEngine.Set("loadDocument", js.FuncOf(loadDocument))
	geoEngine.Set("loadDocumentYAML", js.FuncOf(loadDocumentYAML))
	geoEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	geoEngine.Set("moveElement", js.FuncOf(moveElement))
	geoEngine.Set("transformElements", js.FuncOf(transformElements))
	geoEngine.Set("setVisibility", js.FuncOf(setVisibility))
	geoEngine.Set("removeElement", js.FuncOf(removeElement))
	geoEngine.Set("createElement", js.FuncOf(createElement))
	geoEngine.Set("setSelection", js.FuncOf(setSelection))

	// --- Queries (frontend ← backend) ---
	geoEngine.Set("render", js.FuncOf(render))
	geoEngine.Set("hitTest", js.FuncOf(hitTest))
	geoEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	geoEngine.Set("getScene", js.FuncOf(getScene))
	geoEngine.Set("getDocument", js.FuncOf(getDocument))
	geoEngine.Set("getSelection", js.FuncOf(getSelection))
	geoEngine.Set("getState", js.FuncOf(getState))

	// Register on global scope
	js.Global().Set("geoEngine", geoEngine)

	// Signal that WASM is ready
	js.Global().Set("geoWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	if err := eng.LoadDocument(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadDocumentYAML(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document YAML"})
	}
	if err := eng.LoadDocumentYAML([]byte(args[0].String())); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	sceneID := "scene_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		sceneID = args[0].String()
	}

	eng.LoadSampleDocument(sceneID)
	return okResult()
}

func moveElement(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "expected id, x, y"})
	}
	if err := eng.MoveElement(args[0].String(), args[1].Float(), args[2].Float()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

// transformElements takes an id array and a six element affine matrix.
func transformElements(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "expected ids, matrix"})
	}
	m := args[1]
	if m.Length() != 6 {
		return js.ValueOf(map[string]interface{}{"error": "matrix must have 6 entries"})
	}
	var mat geom.Matrix2D
	for i := range mat {
		mat[i] = m.Index(i).Float()
	}
	if err := eng.TransformElements(stringSlice(args[0]), mat); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func setVisibility(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "expected id, visible"})
	}
	if err := eng.SetVisibility(args[0].String(), args[1].Bool()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func removeElement(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing id"})
	}
	removed, err := eng.RemoveElement(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	out := make([]interface{}, len(removed))
	for i, id := range removed {
		out[i] = id
	}
	return js.ValueOf(map[string]interface{}{"removed": out})
}

// createElement takes an element definition as a JSON string.
func createElement(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing element JSON"})
	}
	var def document.ElementDef
	if err := json.Unmarshal([]byte(args[0].String()), &def); err != nil {
		return errorResult(err)
	}
	id, err := eng.CreateElement(def)
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]interface{}{"id": id})
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}
	eng.SetSelection(stringSlice(args[0]))
	return nil
}

func stringSlice(arr js.Value) []string {
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	return ids
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getScene(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetScene())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}
