package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inamate/geoscene/internal/db/dbgen"
	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/engine"
	"github.com/inamate/geoscene/internal/typeid"
)

var (
	ErrNotFound  = errors.New("scene not found")
	ErrForbidden = errors.New("forbidden")

	ErrInvalidDocument = errors.New("invalid scene document")
)

// Queries is the subset of the generated queries the service needs.
type Queries interface {
	CreateScene(ctx context.Context, arg dbgen.CreateSceneParams) (dbgen.Scene, error)
	GetScene(ctx context.Context, id string) (dbgen.Scene, error)
	ListScenesForUser(ctx context.Context, ownerID string) ([]dbgen.Scene, error)
	TouchScene(ctx context.Context, id string) error
	DeleteScene(ctx context.Context, id string) error
	CreateSnapshot(ctx context.Context, arg dbgen.CreateSnapshotParams) (dbgen.SceneSnapshot, error)
	GetLatestSnapshot(ctx context.Context, sceneID string) (dbgen.SceneSnapshot, error)
}

type Service struct {
	queries    Queries
	engineOpts []engine.BoardOption
}

// NewService creates the scene service. The board options are used when
// scenes are evaluated for rendering.
func NewService(queries Queries, opts ...engine.BoardOption) *Service {
	return &Service{queries: queries, engineOpts: opts}
}

type Scene struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Template selects the document a new scene starts from.
type Template string

const (
	TemplateEmpty  Template = ""
	TemplateSample Template = "sample"
)

func (s *Service) Create(ctx context.Context, name, ownerID string, tmpl Template) (*Scene, error) {
	sceneID := typeid.NewSceneID()

	var doc *document.SceneDocument
	switch tmpl {
	case TemplateEmpty:
		doc = document.NewEmptyDocument(sceneID, name)
	case TemplateSample:
		doc = document.NewSampleDocument(sceneID)
		doc.Scene.Name = name
	default:
		return nil, fmt.Errorf("unknown template %q", tmpl)
	}
	return s.insert(ctx, doc, ownerID)
}

// Import creates a new scene owned by ownerID from an uploaded document.
// The document must build a board. The stored copy carries the generated
// element ids and a new scene id.
func (s *Service) Import(ctx context.Context, name, ownerID string, upload *document.SceneDocument) (*Scene, error) {
	e := engine.NewEngine(s.engineOpts...)
	if err := e.SetDocument(upload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	doc := e.Document()

	doc.Scene.ID = typeid.NewSceneID()
	if name != "" {
		doc.Scene.Name = name
	}
	if doc.Scene.Name == "" {
		doc.Scene.Name = "Imported scene"
	}
	return s.insert(ctx, doc, ownerID)
}

// insert stores a scene row and doc as its first snapshot.
func (s *Service) insert(ctx context.Context, doc *document.SceneDocument, ownerID string) (*Scene, error) {
	dbScene, err := s.queries.CreateScene(ctx, dbgen.CreateSceneParams{
		ID:      doc.Scene.ID,
		Name:    doc.Scene.Name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.queries.CreateSnapshot(ctx, dbgen.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		SceneID:  doc.Scene.ID,
		Version:  1,
		Document: docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbSceneToScene(dbScene), nil
}

func (s *Service) Get(ctx context.Context, sceneID, userID string) (*Scene, error) {
	dbScene, err := s.ownedScene(ctx, sceneID, userID)
	if err != nil {
		return nil, err
	}
	return dbSceneToScene(dbScene), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Scene, error) {
	dbScenes, err := s.queries.ListScenesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}

	scenes := make([]Scene, len(dbScenes))
	for i, sc := range dbScenes {
		scenes[i] = *dbSceneToScene(sc)
	}
	return scenes, nil
}

func (s *Service) Delete(ctx context.Context, sceneID, userID string) error {
	if _, err := s.ownedScene(ctx, sceneID, userID); err != nil {
		return err
	}
	return s.queries.DeleteScene(ctx, sceneID)
}

// CanAccess reports whether userID may open sceneID.
func (s *Service) CanAccess(ctx context.Context, sceneID, userID string) error {
	_, err := s.ownedScene(ctx, sceneID, userID)
	return err
}

func (s *Service) GetLatestSnapshot(ctx context.Context, sceneID, userID string) (json.RawMessage, error) {
	if _, err := s.ownedScene(ctx, sceneID, userID); err != nil {
		return nil, err
	}

	snap, err := s.queries.GetLatestSnapshot(ctx, sceneID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// Render evaluates the latest snapshot and returns its draw commands.
func (s *Service) Render(ctx context.Context, sceneID, userID string) (json.RawMessage, error) {
	raw, err := s.GetLatestSnapshot(ctx, sceneID, userID)
	if err != nil {
		return nil, err
	}

	e := engine.NewEngine(s.engineOpts...)
	if err := e.LoadDocument(string(raw)); err != nil {
		return nil, fmt.Errorf("evaluate scene %s: %w", sceneID, err)
	}
	return json.RawMessage(e.Render()), nil
}

// ExportDocument returns the latest document of a scene owned by userID.
func (s *Service) ExportDocument(ctx context.Context, sceneID, userID string) (*document.SceneDocument, error) {
	if _, err := s.ownedScene(ctx, sceneID, userID); err != nil {
		return nil, err
	}
	return s.LoadDocument(ctx, sceneID)
}

// LoadDocument returns the latest persisted document of a scene.
func (s *Service) LoadDocument(ctx context.Context, sceneID string) (*document.SceneDocument, error) {
	snap, err := s.queries.GetLatestSnapshot(ctx, sceneID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return document.Parse(snap.Document)
}

// SaveDocument stores doc as the next snapshot version of the scene.
func (s *Service) SaveDocument(ctx context.Context, sceneID string, doc *document.SceneDocument) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	next := int32(1)
	current, err := s.queries.GetLatestSnapshot(ctx, sceneID)
	switch {
	case err == nil:
		next = current.Version + 1
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("get snapshot: %w", err)
	}

	_, err = s.queries.CreateSnapshot(ctx, dbgen.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		SceneID:  sceneID,
		Version:  next,
		Document: docJSON,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return s.queries.TouchScene(ctx, sceneID)
}

func (s *Service) ownedScene(ctx context.Context, sceneID, userID string) (dbgen.Scene, error) {
	dbScene, err := s.queries.GetScene(ctx, sceneID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Scene{}, ErrNotFound
		}
		return dbgen.Scene{}, fmt.Errorf("get scene: %w", err)
	}
	if dbScene.OwnerID != userID {
		return dbgen.Scene{}, ErrForbidden
	}
	return dbScene, nil
}

func dbSceneToScene(s dbgen.Scene) *Scene {
	return &Scene{
		ID:        s.ID,
		Name:      s.Name,
		OwnerID:   s.OwnerID,
		CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: s.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
