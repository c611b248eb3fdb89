package mapsync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/observability"
)

// ErrUnknownMarker is returned when a click targets a marker that is not on
// the current map.
var ErrUnknownMarker = errors.New("marker not found")

// Batch is the set of records to annotate in one load cycle.
type Batch struct {
	Incidents  []domain.IncidentDetailRecord
	Facilities []domain.FacilitySafetyRecord
	Accidents  []domain.AccidentRecord
}

// Synchronizer places annotations on a Surface and owns the popup state.
type Synchronizer struct {
	surface  Surface
	geocoder domain.Geocoder
	sem      *semaphore.Weighted
	logger   *slog.Logger
	metrics  *observability.Metrics

	popup PopupState

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	placed     map[MarkerID]struct{}
}

// NewSynchronizer creates a Synchronizer. concurrency bounds the number of
// in-flight geocoding lookups; a nil geocoder disables address-based
// annotations.
func NewSynchronizer(surface Surface, geocoder domain.Geocoder, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *Synchronizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Synchronizer{
		surface:  surface,
		geocoder: geocoder,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		logger:   logger,
		metrics:  metrics,
		placed:   make(map[MarkerID]struct{}),
	}
}

// Run tracks the lookups of one Sync call.
type Run struct {
	Generation uint64

	wg     sync.WaitGroup
	placed atomic.Int64
	failed atomic.Int64
	stale  atomic.Int64
}

// Wait blocks until every lookup of the run has completed or been abandoned.
func (r *Run) Wait() { r.wg.Wait() }

// Placed returns how many markers the run put on the map.
func (r *Run) Placed() int { return int(r.placed.Load()) }

// Failed returns how many address annotations could not be placed: the
// lookup failed, found nothing, or there was no address to look up.
func (r *Run) Failed() int { return int(r.failed.Load()) }

// Stale returns how many completions arrived after a newer Sync.
func (r *Run) Stale() int { return int(r.stale.Load()) }

// Sync discards the current map and annotates a new batch. Incident details
// are placed before Sync returns; geocoding lookups for facilities and
// accidents are issued without waiting on each other and place their
// markers as they complete. A later Sync cancels the lookups of this one.
func (s *Synchronizer) Sync(ctx context.Context, b Batch) *Run {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel
	gen := s.generation
	s.popup.Reset(s.surface)
	s.surface.Clear()
	s.placed = make(map[MarkerID]struct{})
	s.mu.Unlock()

	run := &Run{Generation: gen}

	for i, r := range b.Incidents {
		lat, lon, ok := r.Coordinates()
		if !ok {
			continue
		}
		a := incidentAnnotation(r, lat, lon)
		a.ID = markerID(gen, KindIncidentDetail, i)
		s.place(gen, a, run)
	}

	if s.geocoder == nil {
		if len(b.Facilities)+len(b.Accidents) > 0 {
			s.logger.Info("geocoder disabled, skipping address annotations",
				"facilities", len(b.Facilities), "accidents", len(b.Accidents))
		}
		return run
	}

	for i, r := range b.Facilities {
		a := facilityAnnotation(r)
		a.ID = markerID(gen, KindFacility, i)
		s.resolve(runCtx, gen, string(r.Address), a, run)
	}
	for i, r := range b.Accidents {
		a := accidentAnnotation(r)
		a.ID = markerID(gen, KindAccident, i)
		s.resolve(runCtx, gen, r.Address(), a, run)
	}
	return run
}

// resolve geocodes address in the background and places a on success.
// A blank address is never sent to the geocoder.
func (s *Synchronizer) resolve(ctx context.Context, gen uint64, address string, a Annotation, run *Run) {
	if strings.TrimSpace(address) == "" {
		s.metrics.GeocodeRequests.WithLabelValues("skipped").Inc()
		run.failed.Add(1)
		s.logger.Debug("skipping annotation without address", "kind", a.Kind, "id", a.ID)
		return
	}
	run.wg.Add(1)
	go func() {
		defer run.wg.Done()

		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		result, err := s.geocoder.Geocode(ctx, address)
		s.sem.Release(1)

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.metrics.GeocodeRequests.WithLabelValues("error").Inc()
			run.failed.Add(1)
			s.logger.Warn("address lookup failed", "address", address, "kind", a.Kind, "error", err)
			return
		}
		if !result.Found() {
			s.metrics.GeocodeRequests.WithLabelValues("miss").Inc()
			run.failed.Add(1)
			s.logger.Warn("address lookup found nothing", "address", address, "kind", a.Kind)
			return
		}
		s.metrics.GeocodeRequests.WithLabelValues("success").Inc()

		a.Lat = result.Lat
		a.Lon = result.Lon
		s.place(gen, a, run)
	}()
}

// place puts a on the surface unless a newer generation has started.
func (s *Synchronizer) place(gen uint64, a Annotation, run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.metrics.StaleResults.Inc()
		run.stale.Add(1)
		return
	}
	s.surface.PlaceMarker(a)
	s.placed[a.ID] = struct{}{}
	s.metrics.MarkersPlaced.WithLabelValues(string(a.Kind)).Inc()
	run.placed.Add(1)
}

// Click toggles the popup of a marker on the current map.
func (s *Synchronizer) Click(id MarkerID) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.placed[id]; !ok {
		return "", ErrUnknownMarker
	}
	result := s.popup.Toggle(id, s.surface)
	s.metrics.PopupToggles.WithLabelValues(string(result)).Inc()
	return result, nil
}

// OpenPopup returns the marker whose popup is open, or "" when none is.
func (s *Synchronizer) OpenPopup() MarkerID {
	return s.popup.Open()
}

// Generation returns the current map generation.
func (s *Synchronizer) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Stop cancels the lookups of the current generation.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
