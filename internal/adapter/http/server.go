package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/sinkhole-risk/internal/mapsync"
	"github.com/couchcryptid/sinkhole-risk/internal/pipeline"
)

// SnapshotSource returns the latest completed load cycle, or nil.
type SnapshotSource interface {
	Snapshot() *pipeline.Snapshot
}

// MapView exposes the placed markers.
type MapView interface {
	Markers() []mapsync.MarkerView
	Viewport() mapsync.Viewport
}

// MarkerClicker routes marker clicks to the popup owner.
type MarkerClicker interface {
	Click(id mapsync.MarkerID) (mapsync.ToggleResult, error)
	OpenPopup() mapsync.MarkerID
	Generation() uint64
}

// Deps are the components the API reads from. Map and Clicker may be nil,
// in which case the marker routes are not registered.
type Deps struct {
	Ready     sharedobs.ReadinessChecker
	Snapshots SnapshotSource
	Map       MapView
	Clicker   MarkerClicker
}

// Server exposes the region table, the map state, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/evaluations", s.handleEvaluations)
	if deps.Map != nil && deps.Clicker != nil {
		mux.HandleFunc("GET /api/markers", s.handleMarkers)
		mux.HandleFunc("POST /api/markers/{id}/click", s.handleClick)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
