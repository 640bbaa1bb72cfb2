// Package web serves the compiled scene and live import progress over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/ritzau/netscene/pkg/importer"
	"github.com/ritzau/netscene/pkg/logging"
	"github.com/ritzau/netscene/pkg/pubsub"
	"github.com/ritzau/netscene/pkg/scene"
)

// SceneSource provides point-in-time scene documents
type SceneSource interface {
	Document() *scene.Document
}

// ObjectSummary is one row of the object listing
type ObjectSummary struct {
	Name       string           `json:"name"`
	Kind       scene.ObjectKind `json:"kind"`
	Shape      scene.Shape      `json:"shape,omitempty"`
	Template   string           `json:"template,omitempty"`
	Collection string           `json:"collection"`
	Material   string           `json:"material"`
	Keyframes  int              `json:"keyframes"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	source    SceneSource
	publisher *pubsub.SSEPublisher
}

// NewServer creates a server exposing source. Import and scene events
// published through the server reach SSE subscribers.
func NewServer(source SceneSource) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		source:    source,
		publisher: pubsub.NewSSEPublisher(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/scene", s.handleScene).Methods("GET")
	s.router.HandleFunc("/api/frames", s.handleFrames).Methods("GET")
	s.router.HandleFunc("/api/collections", s.handleCollections).Methods("GET")
	s.router.HandleFunc("/api/objects", s.handleObjects).Methods("GET")
	s.router.HandleFunc("/api/objects/{name}", s.handleObject).Methods("GET")
	s.router.HandleFunc("/api/materials/{name}", s.handleMaterial).Methods("GET")
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// PublishImport announces the outcome of one snapshot import
func (s *Server) PublishImport(rep *importer.Report, nodesPath, edgesPath string, frame int, importErr error) error {
	status := pubsub.ImportStatus{
		Frame:     frame,
		NodesPath: nodesPath,
		EdgesPath: edgesPath,
	}
	eventType := pubsub.EventImportCompleted
	if rep != nil {
		status.RunID = rep.RunID
		status.Created = rep.Created
		status.Updated = rep.Updated
		status.Skipped = rep.Skipped
		status.Warnings = rep.Warnings
	}
	if importErr != nil {
		eventType = pubsub.EventImportFailed
		status.Error = importErr.Error()
	}
	return s.publisher.Publish(pubsub.TopicImports, eventType, status)
}

// PublishScene announces that the scene document was written to path
func (s *Server) PublishScene(path string) error {
	doc := s.source.Document()
	return s.publisher.Publish(pubsub.TopicScene, pubsub.EventSceneWritten, pubsub.SceneStatus{
		Path:      path,
		Objects:   len(doc.Objects),
		Materials: len(doc.Materials),
		Frames:    doc.Frames,
	})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if _, ok := pubsub.DefaultTopics[topic]; !ok {
		http.Error(w, fmt.Sprintf("Unknown topic: %s", topic), http.StatusNotFound)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
				return
			}
			flush()
		}
	}
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.source.Document())
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.source.Document().Frames)
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.source.Document().Collections)
}

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	doc := s.source.Document()
	collection := r.URL.Query().Get("collection")
	kind := r.URL.Query().Get("kind")

	out := make([]ObjectSummary, 0, len(doc.Objects))
	for _, obj := range doc.Objects {
		if collection != "" && obj.Collection != collection {
			continue
		}
		if kind != "" && string(obj.Kind) != kind {
			continue
		}
		out = append(out, ObjectSummary{
			Name:       obj.Name,
			Kind:       obj.Kind,
			Shape:      obj.Shape,
			Template:   obj.Template,
			Collection: obj.Collection,
			Material:   obj.Material,
			Keyframes:  obj.Animation.Track(scene.AttrLocation).Len(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, r, out)
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	obj, ok := s.source.Document().FindObject(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Object not found: %s", name), http.StatusNotFound)
		return
	}
	writeJSON(w, r, obj)
}

func (s *Server) handleMaterial(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	mat, ok := s.source.Document().FindMaterial(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Material not found: %s", name), http.StatusNotFound)
		return
	}
	writeJSON(w, r, mat)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "failed to encode response", "path", r.URL.Path, "error", err)
	}
}

// Start serves on port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// End SSE streams first so Shutdown does not wait on them
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}
