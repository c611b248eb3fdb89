package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/mapsync"
	"github.com/couchcryptid/sinkhole-risk/internal/observability"
)

// ErrNoData is returned when every dataset fetch of a cycle failed.
var ErrNoData = errors.New("no dataset could be fetched")

// Fetcher retrieves the raw response pages of one dataset.
type Fetcher interface {
	Fetch(ctx context.Context, ds domain.Dataset) ([][]byte, error)
}

// ReportPublisher writes the scored region table to a downstream sink.
type ReportPublisher interface {
	PublishReports(ctx context.Context, cycleID string, summaries []domain.RegionSummary) error
}

// MapSyncer annotates a batch of records on the map.
type MapSyncer interface {
	Sync(ctx context.Context, b mapsync.Batch) *mapsync.Run
}

// Options tunes a Loader.
type Options struct {
	FacilityMapLimit int
	AccidentMapLimit int
}

// Snapshot is the result of one completed load cycle.
type Snapshot struct {
	CycleID     string
	LoadedAt    time.Time
	Summaries   []domain.RegionSummary
	Evaluations []domain.RiskAssessmentRecord
}

// Loader runs load cycles: fetch the four datasets together, normalize,
// aggregate, score, publish, and hand the map batch to the synchronizer.
type Loader struct {
	fetcher   Fetcher
	syncer    MapSyncer
	publisher ReportPublisher
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu       sync.Mutex // serializes cycles
	snapshot atomic.Pointer[Snapshot]
	ready    atomic.Bool
	settled  sync.WaitGroup
}

// New creates a Loader. syncer and publisher may be nil.
func New(fetcher Fetcher, syncer MapSyncer, publisher ReportPublisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		fetcher:   fetcher,
		syncer:    syncer,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a load cycle has completed, or an error
// describing why the service is not yet ready.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("no load cycle has completed yet")
	}
	return nil
}

// Snapshot returns the most recent completed cycle, or nil before the first.
func (l *Loader) Snapshot() *Snapshot {
	return l.snapshot.Load()
}

// Load runs one full cycle. A dataset that fails to fetch contributes no
// records; the cycle fails only if all of them fail or ctx is cancelled.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	cycleID := uuid.NewString()
	logger := l.logger.With("cycle_id", cycleID)

	pages, failed, err := l.fetchAll(ctx, logger)
	if err != nil {
		l.metrics.LoadCycles.WithLabelValues("cancelled").Inc()
		return nil, err
	}
	if failed == len(domain.Datasets) {
		l.metrics.LoadCycles.WithLabelValues("failed").Inc()
		return nil, ErrNoData
	}

	records := Decode(pages, func(ds domain.Dataset, err error) {
		l.metrics.NormalizeIssues.WithLabelValues(string(ds)).Inc()
		logger.Warn("dataset normalized with issues", "dataset", ds, "error", err)
	})
	for _, ds := range domain.Datasets {
		l.metrics.RecordsIngested.WithLabelValues(string(ds)).Add(float64(records.Count(ds)))
	}

	regions := domain.Aggregate(records.Accidents, records.Incidents, records.Facilities, domain.CurrentYear())
	domain.ScoreAll(regions)
	summaries := domain.SortedSummaries(regions)
	l.recordTrends(summaries)

	snap := &Snapshot{
		CycleID:     cycleID,
		LoadedAt:    time.Now(),
		Summaries:   summaries,
		Evaluations: records.Evaluations,
	}
	l.snapshot.Store(snap)
	l.ready.Store(true)

	if l.publisher != nil {
		if err := l.publisher.PublishReports(ctx, cycleID, summaries); err != nil {
			logger.Error("publish region reports failed", "error", err)
		} else {
			l.metrics.ReportsPublished.Add(float64(len(summaries)))
		}
	}

	if l.syncer != nil {
		run := l.syncer.Sync(ctx, records.MapBatch(l.opts.FacilityMapLimit, l.opts.AccidentMapLimit))
		l.settled.Add(1)
		go func() {
			defer l.settled.Done()
			run.Wait()
			logger.Info("map annotations settled",
				"generation", run.Generation,
				"placed", run.Placed(),
				"failed", run.Failed(),
				"stale", run.Stale(),
			)
		}()
	}

	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.metrics.LoadCycles.WithLabelValues("success").Inc()
	logger.Info("load cycle complete",
		"regions", len(summaries),
		"evaluations", len(records.Evaluations),
		"accidents", len(records.Accidents),
		"incidents", len(records.Incidents),
		"facilities", len(records.Facilities),
		"duration", time.Since(start),
	)
	return snap, nil
}

// Wait blocks until the map annotations of every started cycle have settled.
func (l *Loader) Wait() {
	l.settled.Wait()
}

// fetchAll requests every dataset concurrently. Individual failures are
// logged and counted; only cancellation aborts the whole fetch.
func (l *Loader) fetchAll(ctx context.Context, logger *slog.Logger) (map[domain.Dataset][][]byte, int, error) {
	results := make([][][]byte, len(domain.Datasets))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	for i, ds := range domain.Datasets {
		g.Go(func() error {
			pages, err := l.fetcher.Fetch(gctx, ds)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				l.metrics.FetchFailures.WithLabelValues(string(ds)).Inc()
				logger.Warn("dataset fetch failed, treating as empty", "dataset", ds, "error", err)
			}
			// Pages fetched before a failure are still usable.
			results[i] = pages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("fetch datasets: %w", err)
	}

	pages := make(map[domain.Dataset][][]byte, len(domain.Datasets))
	for i, ds := range domain.Datasets {
		pages[ds] = results[i]
	}
	return pages, int(failed.Load()), nil
}

func (l *Loader) recordTrends(summaries []domain.RegionSummary) {
	l.metrics.Regions.Set(float64(len(summaries)))
	l.metrics.RegionsByTrend.Reset()
	for _, s := range summaries {
		l.metrics.RegionsByTrend.WithLabelValues(string(s.RiskTrend)).Inc()
	}
}

// Run performs the initial load, retrying with exponential backoff until it
// succeeds or ctx is cancelled.
func (l *Loader) Run(ctx context.Context) error {
	// Exponential backoff: start at 1s, double each retry, cap at 1m.
	backoff := time.Second
	maxBackoff := time.Minute

	for {
		_, err := l.Load(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			l.logger.Info("initial load stopping", "reason", ctx.Err())
			return nil
		}
		l.logger.Error("load cycle failed, retrying", "error", err, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}
