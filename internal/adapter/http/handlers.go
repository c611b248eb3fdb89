package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/mapsync"
)

const (
	defaultPageSize = 5
	maxPageSize     = 100
)

type regionsResponse struct {
	CycleID  string                 `json:"cycle_id"`
	LoadedAt time.Time              `json:"loaded_at"`
	Query    string                 `json:"query,omitempty"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	Size     int                    `json:"size"`
	Pages    int                    `json:"pages"`
	Regions  []domain.RegionSummary `json:"regions"`
}

type evaluationsResponse struct {
	CycleID     string                        `json:"cycle_id"`
	LoadedAt    time.Time                     `json:"loaded_at"`
	Evaluations []domain.RiskAssessmentRecord `json:"evaluations"`
}

type markersResponse struct {
	Generation uint64               `json:"generation"`
	OpenPopup  mapsync.MarkerID     `json:"open_popup,omitempty"`
	Viewport   mapsync.Viewport     `json:"viewport"`
	Markers    []mapsync.MarkerView `json:"markers"`
}

type clickResponse struct {
	ID     mapsync.MarkerID     `json:"id"`
	Action mapsync.ToggleResult `json:"action"`
}

// handleRegions serves the sorted region table, filtered by the q substring
// and paged with 1-based page and size parameters.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Snapshots.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no load cycle has completed yet")
		return
	}

	q := r.URL.Query()
	page, err := positiveParam(q.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	size, err := positiveParam(q.Get("size"), defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "size must be a positive integer")
		return
	}
	size = min(size, maxPageSize)

	query := q.Get("q")
	filtered := domain.FilterSummaries(snap.Summaries, query)
	pages := (len(filtered) + size - 1) / size
	start := len(filtered)
	if page <= pages {
		start = (page - 1) * size
	}
	end := min(start+size, len(filtered))

	sharedobs.WriteJSON(w, http.StatusOK, regionsResponse{
		CycleID:  snap.CycleID,
		LoadedAt: snap.LoadedAt,
		Query:    query,
		Total:    len(filtered),
		Page:     page,
		Size:     size,
		Pages:    pages,
		Regions:  filtered[start:end],
	})
}

func (s *Server) handleEvaluations(w http.ResponseWriter, _ *http.Request) {
	snap := s.deps.Snapshots.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no load cycle has completed yet")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, evaluationsResponse{
		CycleID:     snap.CycleID,
		LoadedAt:    snap.LoadedAt,
		Evaluations: snap.Evaluations,
	})
}

func (s *Server) handleMarkers(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, markersResponse{
		Generation: s.deps.Clicker.Generation(),
		OpenPopup:  s.deps.Clicker.OpenPopup(),
		Viewport:   s.deps.Map.Viewport(),
		Markers:    s.deps.Map.Markers(),
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	id := mapsync.MarkerID(r.PathValue("id"))
	action, err := s.deps.Clicker.Click(id)
	if errors.Is(err, mapsync.ErrUnknownMarker) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("marker click failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "click failed")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, clickResponse{ID: id, Action: action})
}

func positiveParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}
