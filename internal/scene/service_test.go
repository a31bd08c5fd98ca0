package scene

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoscene/internal/auth"
	"github.com/inamate/geoscene/internal/db/dbgen"
	"github.com/inamate/geoscene/internal/document"
)

type fakeQueries struct {
	mu        sync.Mutex
	scenes    map[string]dbgen.Scene
	snapshots map[string][]dbgen.SceneSnapshot
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		scenes:    make(map[string]dbgen.Scene),
		snapshots: make(map[string][]dbgen.SceneSnapshot),
	}
}

func (f *fakeQueries) CreateScene(_ context.Context, arg dbgen.CreateSceneParams) (dbgen.Scene, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	sc := dbgen.Scene{ID: arg.ID, Name: arg.Name, OwnerID: arg.OwnerID, CreatedAt: now, UpdatedAt: now}
	f.scenes[sc.ID] = sc
	return sc, nil
}

func (f *fakeQueries) GetScene(_ context.Context, id string) (dbgen.Scene, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scenes[id]
	if !ok {
		return dbgen.Scene{}, pgx.ErrNoRows
	}
	return sc, nil
}

func (f *fakeQueries) ListScenesForUser(_ context.Context, ownerID string) ([]dbgen.Scene, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dbgen.Scene
	for _, sc := range f.scenes {
		if sc.OwnerID == ownerID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (f *fakeQueries) TouchScene(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc := f.scenes[id]
	sc.UpdatedAt = time.Now()
	f.scenes[id] = sc
	return nil
}

func (f *fakeQueries) DeleteScene(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scenes, id)
	delete(f.snapshots, id)
	return nil
}

func (f *fakeQueries) CreateSnapshot(_ context.Context, arg dbgen.CreateSnapshotParams) (dbgen.SceneSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := dbgen.SceneSnapshot{ID: arg.ID, SceneID: arg.SceneID, Version: arg.Version, Document: arg.Document, CreatedAt: time.Now()}
	f.snapshots[arg.SceneID] = append(f.snapshots[arg.SceneID], snap)
	return snap, nil
}

func (f *fakeQueries) GetLatestSnapshot(_ context.Context, sceneID string) (dbgen.SceneSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snaps := f.snapshots[sceneID]
	if len(snaps) == 0 {
		return dbgen.SceneSnapshot{}, pgx.ErrNoRows
	}
	return snaps[len(snaps)-1], nil
}

func TestServiceLifecycle(t *testing.T) {
	q := newFakeQueries()
	s := NewService(q)
	ctx := context.Background()

	sc, err := s.Create(ctx, "Euclid", "user_a", TemplateSample)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sc.ID, "scene_"))

	_, err = s.Get(ctx, sc.ID, "user_b")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.Get(ctx, "scene_missing", "user_a")
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := s.LoadDocument(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Euclid", doc.Scene.Name)
	assert.Equal(t, sc.ID, doc.Scene.ID)

	doc.Elements = doc.Elements[:3]
	require.NoError(t, s.SaveDocument(ctx, sc.ID, doc))
	latest, err := q.GetLatestSnapshot(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), latest.Version)

	exported, err := s.ExportDocument(ctx, sc.ID, "user_a")
	require.NoError(t, err)
	assert.Len(t, exported.Elements, 3)
	_, err = s.ExportDocument(ctx, sc.ID, "user_b")
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := s.List(ctx, "user_a")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, s.Delete(ctx, sc.ID, "user_b"), ErrForbidden)
	require.NoError(t, s.Delete(ctx, sc.ID, "user_a"))
	_, err = s.LoadDocument(ctx, sc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceRender(t *testing.T) {
	s := NewService(newFakeQueries())
	ctx := context.Background()
	sc, err := s.Create(ctx, "sample", "user_a", TemplateSample)
	require.NoError(t, err)

	raw, err := s.Render(ctx, sc.ID, "user_a")
	require.NoError(t, err)
	var cmds []map[string]any
	require.NoError(t, json.Unmarshal(raw, &cmds))
	assert.NotEmpty(t, cmds)
	assert.Contains(t, string(raw), `"objectId":"P"`)

	empty, err := s.Create(ctx, "empty", "user_a", TemplateEmpty)
	require.NoError(t, err)
	raw, err = s.Render(ctx, empty.ID, "user_a")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	_, err = s.Create(ctx, "x", "user_a", "cube")
	assert.Error(t, err)
}

func TestServiceImport(t *testing.T) {
	q := newFakeQueries()
	s := NewService(q)
	ctx := context.Background()

	doc := document.NewSampleDocument("scene_elsewhere")
	sc, err := s.Import(ctx, "", "user_a", doc)
	require.NoError(t, err)
	assert.NotEqual(t, "scene_elsewhere", sc.ID)
	assert.Equal(t, "scene_elsewhere", doc.Scene.ID, "upload is not modified")
	assert.True(t, strings.HasPrefix(sc.ID, "scene_"))

	loaded, err := s.LoadDocument(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, loaded.Scene.ID)
	assert.Len(t, loaded.Elements, len(doc.Elements))

	named, err := s.Import(ctx, "Renamed", "user_a", document.NewSampleDocument("x"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", named.Name)

	bad := document.NewSampleDocument("x")
	bad.Elements = append(bad.Elements, document.ElementDef{ID: "bad", Type: document.ElementTypeIntersection, Parents: []string{"A", "B"}})
	_, err = s.Import(ctx, "", "user_a", bad)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	list, err := s.List(ctx, "user_a")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func newTestRouter(s *Service, userID string) http.Handler {
	h := NewHandler(s)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.HandleFunc("/api/scenes", h.List).Methods("GET")
	r.HandleFunc("/api/scenes", h.Create).Methods("POST")
	r.HandleFunc("/api/scenes/{sceneId}", h.Get).Methods("GET")
	r.HandleFunc("/api/scenes/{sceneId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/api/scenes/{sceneId}/snapshots/latest", h.GetLatestSnapshot).Methods("GET")
	r.HandleFunc("/api/scenes/{sceneId}/render", h.Render).Methods("GET")
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandler(t *testing.T) {
	s := NewService(newFakeQueries())
	owner := newTestRouter(s, "user_a")
	stranger := newTestRouter(s, "user_b")

	assert.Equal(t, http.StatusBadRequest, do(t, owner, "POST", "/api/scenes", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, owner, "POST", "/api/scenes", `{"name":"x","template":"cube"}`).Code)

	rec := do(t, owner, "POST", "/api/scenes", `{"name":"Circles","template":"sample"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sc Scene
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sc))

	rec = do(t, owner, "GET", "/api/scenes/"+sc.ID+"/snapshots/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := document.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	assert.NotEqual(t, -1, doc.Index("cc"))

	assert.Equal(t, http.StatusOK, do(t, owner, "GET", "/api/scenes/"+sc.ID+"/render", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, stranger, "GET", "/api/scenes/"+sc.ID, "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, stranger, "DELETE", "/api/scenes/"+sc.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, owner, "GET", "/api/scenes/scene_nope/render", "").Code)

	rec = do(t, owner, "GET", "/api/scenes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sc.ID)

	assert.Equal(t, http.StatusNoContent, do(t, owner, "DELETE", "/api/scenes/"+sc.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, owner, "GET", "/api/scenes/"+sc.ID, "").Code)
}
