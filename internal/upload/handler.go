package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/inamate/geoscene/internal/auth"
	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/scene"
)

const maxUploadSize = 1 << 20 // 1MB

// Importer creates scenes from uploaded documents.
type Importer interface {
	Import(ctx context.Context, name, ownerID string, doc *document.SceneDocument) (*scene.Scene, error)
}

// Handler serves scene file uploads.
type Handler struct {
	importer Importer
}

func NewHandler(importer Importer) *Handler {
	return &Handler{importer: importer}
}

// ImportScene handles POST /api/scenes/import (multipart form with a "file"
// field and an optional "name"). JSON and YAML files are accepted; the
// decoder is chosen by file extension.
func (h *Handler) ImportScene(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 1MB)"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read file"})
		return
	}

	var doc *document.SceneDocument
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".yaml", ".yml":
		doc, err = document.ParseYAML(data)
	case ".json":
		doc, err = document.Parse(data)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only .json and .yaml scene files are supported"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sc, err := h.importer.Import(r.Context(), r.FormValue("name"), userID, doc)
	if err != nil {
		if errors.Is(err, scene.ErrInvalidDocument) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("import scene", "file", header.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("scene imported", "scene", sc.ID, "file", header.Filename, "elements", len(doc.Elements))
	writeJSON(w, http.StatusCreated, sc)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
