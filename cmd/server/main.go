package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/geoscene/internal/auth"
	"github.com/inamate/geoscene/internal/collab"
	"github.com/inamate/geoscene/internal/config"
	"github.com/inamate/geoscene/internal/db"
	"github.com/inamate/geoscene/internal/db/dbgen"
	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/engine"
	"github.com/inamate/geoscene/internal/export"
	"github.com/inamate/geoscene/internal/geom"
	mw "github.com/inamate/geoscene/internal/middleware"
	"github.com/inamate/geoscene/internal/scene"
	"github.com/inamate/geoscene/internal/upload"
)

// The playground room is open to anonymous users and never persisted.
const playgroundSceneID = "scene_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := dbgen.New(pool)

	engineOpts := []engine.BoardOption{
		engine.WithSolver(geom.NewAnalytic(cfg.SolverEpsilon)),
		engine.WithHitTolerance(cfg.HitTolerance),
		engine.WithLogger(slog.Default()),
	}

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	sceneService := scene.NewService(queries, engineOpts...)
	sceneHandler := scene.NewHandler(sceneService)
	exportHandler := export.NewHandler(sceneService)
	uploadHandler := upload.NewHandler(sceneService)

	playground, err := loadPlayground(cfg.PlaygroundScene)
	if err != nil {
		slog.Error("load playground scene", "path", cfg.PlaygroundScene, "error", err)
		os.Exit(1)
	}

	// Document loader for the collaboration hub
	docLoader := func(sceneID string) (*document.SceneDocument, error) {
		if sceneID == playgroundSceneID {
			return playground.Clone(), nil
		}
		// Use a background context since this runs in the hub goroutine
		return sceneService.LoadDocument(context.Background(), sceneID)
	}

	// Document saver for the collaboration hub
	docSaver := func(sceneID string, doc *document.SceneDocument) error {
		if sceneID == playgroundSceneID {
			return nil
		}
		return sceneService.SaveDocument(context.Background(), sceneID, doc)
	}

	hub := collab.NewHub(docLoader, docSaver, engineOpts...)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/scenes", sceneHandler.List).Methods("GET")
	api.HandleFunc("/scenes", sceneHandler.Create).Methods("POST")
	api.HandleFunc("/scenes/import", uploadHandler.ImportScene).Methods("POST")
	api.HandleFunc("/scenes/{sceneId}", sceneHandler.Get).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}", sceneHandler.Delete).Methods("DELETE")
	api.HandleFunc("/scenes/{sceneId}/snapshots/latest", sceneHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}/render", sceneHandler.Render).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}/export", exportHandler.ExportScene).Methods("GET")

	// Preflight for every path; the CORS middleware writes the response
	r.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	// WebSocket endpoint
	r.HandleFunc("/ws/scene/{sceneId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, sceneService, cfg.OriginPatterns())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty scenes
		slog.Info("saving all scenes...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// loadPlayground reads the playground scene from path, or returns the
// built-in sample when path is empty.
func loadPlayground(path string) (*document.SceneDocument, error) {
	if path == "" {
		return document.NewSampleDocument(playgroundSceneID), nil
	}
	doc, err := document.LoadFile(path)
	if err != nil {
		return nil, err
	}
	doc.Scene.ID = playgroundSceneID

	// fail at startup rather than on the first join
	if err := engine.NewEngine().SetDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, scenes *scene.Service, origins []string) {
	sceneID := mux.Vars(r)["sceneId"]

	var userID string
	var displayName string

	if sceneID == playgroundSceneID {
		// Anonymous user for playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param for real scenes
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := scenes.CanAccess(r.Context(), sceneID, userID); err != nil {
			switch {
			case errors.Is(err, scene.ErrNotFound):
				http.Error(w, "scene not found", http.StatusNotFound)
			case errors.Is(err, scene.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				slog.Error("check scene access", "scene", sceneID, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, sceneID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
