package export

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/inamate/geoscene/internal/auth"
	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/scene"
)

// DocumentSource yields the persisted document of a scene the user owns.
type DocumentSource interface {
	ExportDocument(ctx context.Context, sceneID, userID string) (*document.SceneDocument, error)
}

type Handler struct {
	source DocumentSource
}

func NewHandler(source DocumentSource) *Handler {
	return &Handler{source: source}
}

// ExportScene writes the scene document as a download. The format query
// parameter selects json (default) or yaml.
func (h *Handler) ExportScene(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sceneID := mux.Vars(r)["sceneId"]

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		http.Error(w, "invalid format: must be json or yaml", http.StatusBadRequest)
		return
	}

	doc, err := h.source.ExportDocument(r.Context(), sceneID, userID)
	if err != nil {
		switch {
		case errors.Is(err, scene.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, scene.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			slog.Error("export scene", "scene", sceneID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "yaml":
		data, err = yaml.Marshal(doc)
		contentType = "application/yaml"
	default:
		data, err = json.MarshalIndent(doc, "", "  ")
		contentType = "application/json"
	}
	if err != nil {
		slog.Error("encode scene", "scene", sceneID, "format", format, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("scene exported", "scene", sceneID, "format", format, "elements", len(doc.Elements), "bytes", len(data))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName(doc.Scene.Name)+"."+format+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// fileName maps a scene name onto a safe download name.
func fileName(name string) string {
	if name == "" {
		return "scene"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
