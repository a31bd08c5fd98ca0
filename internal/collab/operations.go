package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/engine"
	"github.com/inamate/geoscene/internal/geom"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
)

// SceneState holds the authoritative scene of a room. Operations are
// applied to an engine so every client sees the same intersection state.
type SceneState struct {
	mu        sync.Mutex
	engine    *engine.Engine
	serverSeq int64
	dirty     bool
}

// NewSceneState builds the room engine from an initial document.
func NewSceneState(doc *document.SceneDocument, opts ...engine.BoardOption) (*SceneState, error) {
	e := engine.NewEngine(opts...)
	if err := e.SetDocument(doc); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	return &SceneState{engine: e}, nil
}

// GetDocument returns a copy of the current document.
func (ss *SceneState) GetDocument() *document.SceneDocument {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.engine.Document().Clone()
}

// ServerSeq returns the sequence number of the last applied operation.
func (ss *SceneState) ServerSeq() int64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.serverSeq
}

// Render returns the current draw commands as JSON.
func (ss *SceneState) Render() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.engine.Render()
}

// TakeDirty reports whether operations were applied since the last call
// and clears the flag.
func (ss *SceneState) TakeDirty() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	d := ss.dirty
	ss.dirty = false
	return d
}

// ApplyOperation applies op and returns the server sequence. For
// element.create the operation is rewritten with the generated ids so it
// can be broadcast as is.
func (ss *SceneState) ApplyOperation(op *Operation) (int64, OperationResult, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	res, err := ss.applyOperationLocked(op)
	if err != nil {
		return 0, OperationResult{}, err
	}

	ss.serverSeq++
	ss.dirty = true
	return ss.serverSeq, res, nil
}

// applyOperationLocked applies the operation without locking (caller must hold lock)
func (ss *SceneState) applyOperationLocked(op *Operation) (OperationResult, error) {
	switch op.Type {
	case OpElementMove:
		return OperationResult{}, ss.applyMove(op)
	case OpElementTransform:
		return OperationResult{}, ss.applyTransform(op)
	case OpElementVisibility:
		return OperationResult{}, ss.applyVisibility(op)
	case OpElementRemove:
		return ss.applyRemove(op)
	case OpElementCreate:
		return ss.applyCreate(op)
	default:
		return OperationResult{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func (ss *SceneState) applyMove(op *Operation) error {
	if op.X == nil || op.Y == nil {
		return fmt.Errorf("%w: move needs x and y", ErrInvalidOperation)
	}
	return ss.engine.MoveElement(op.ElementID, *op.X, *op.Y)
}

func (ss *SceneState) applyTransform(op *Operation) error {
	if len(op.Matrix) != 6 {
		return fmt.Errorf("%w: matrix needs 6 entries, got %d", ErrInvalidOperation, len(op.Matrix))
	}
	ids := op.ElementIDs
	if len(ids) == 0 && op.ElementID != "" {
		ids = []string{op.ElementID}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no elements to transform", ErrInvalidOperation)
	}

	var m geom.Matrix2D
	copy(m[:], op.Matrix)
	return ss.engine.TransformElements(ids, m)
}

func (ss *SceneState) applyVisibility(op *Operation) error {
	if op.Visible == nil {
		return fmt.Errorf("%w: visibility needs visible", ErrInvalidOperation)
	}
	return ss.engine.SetVisibility(op.ElementID, *op.Visible)
}

func (ss *SceneState) applyRemove(op *Operation) (OperationResult, error) {
	removed, err := ss.engine.RemoveElement(op.ElementID)
	if err != nil {
		return OperationResult{}, err
	}
	return OperationResult{Removed: removed}, nil
}

func (ss *SceneState) applyCreate(op *Operation) (OperationResult, error) {
	var def document.ElementDef
	if err := json.Unmarshal(op.Element, &def); err != nil {
		return OperationResult{}, fmt.Errorf("%w: element: %v", ErrInvalidOperation, err)
	}

	id, err := ss.engine.CreateElement(def)
	if err != nil {
		return OperationResult{}, err
	}

	doc := ss.engine.Document()
	if i := doc.Index(id); i >= 0 {
		if data, err := json.Marshal(doc.Elements[i]); err == nil {
			op.Element = data
		}
	}
	op.ElementID = id
	return OperationResult{CreatedID: id}, nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
