package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wdpkr/zillowdata/internal/dataprocessing"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/geo"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
)

// Options tunes a Store
type Options struct {
	// LoadTimeout bounds one complete load across all sources
	LoadTimeout time.Duration
	// Concurrency caps parallel fetches
	Concurrency int
}

// DatasetStats describes one loaded document
type DatasetStats struct {
	ID          ID     `json:"id"`
	URL         string `json:"url"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
	Bytes       int    `json:"bytes"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
	FirstMonth  string `json:"first_month,omitempty"`
	LastMonth   string `json:"last_month,omitempty"`
}

// Stats reports the loader's history
type Stats struct {
	Loaded       bool           `json:"loaded"`
	Attempts     int            `json:"attempts"`
	Failures     int            `json:"failures"`
	LastError    string         `json:"last_error,omitempty"`
	LastAttempt  time.Time      `json:"last_attempt"`
	LoadedAt     time.Time      `json:"loaded_at"`
	LoadDuration time.Duration  `json:"load_duration"`
	Datasets     []DatasetStats `json:"datasets,omitempty"`
}

// Snapshot is the result of one successful load. It is never modified after
// it is published.
type Snapshot struct {
	LoadID   string
	LoadedAt time.Time
	Duration time.Duration

	tables     map[ID]*dataprocessing.Table
	boundaries *geo.Boundaries
	datasets   []DatasetStats
}

// Table returns a base table. Callers must not modify it.
func (s *Snapshot) Table(id ID) (*dataprocessing.Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("dataset "+string(id), nil).WithContext("dataset", string(id))
	}
	return t, nil
}

// Boundaries returns the county boundary document
func (s *Snapshot) Boundaries() *geo.Boundaries {
	return s.boundaries
}

// Datasets returns per-document statistics in load order
func (s *Snapshot) Datasets() []DatasetStats {
	return append([]DatasetStats(nil), s.datasets...)
}

// NewSnapshot assembles a snapshot from already-parsed parts
func NewSnapshot(tables map[ID]*dataprocessing.Table, boundaries *geo.Boundaries) *Snapshot {
	snap := &Snapshot{
		LoadID:     uuid.NewString(),
		LoadedAt:   time.Now(),
		tables:     make(map[ID]*dataprocessing.Table, len(tables)),
		boundaries: boundaries,
	}
	for id, t := range tables {
		snap.tables[id] = t
	}
	for _, id := range AllIDs {
		if t, ok := snap.tables[id]; ok {
			snap.datasets = append(snap.datasets, tableStats(Source{ID: id, Kind: KindRegionCSV, Description: descriptions[id]}, 0, t))
		}
	}
	if boundaries != nil {
		snap.datasets = append(snap.datasets, DatasetStats{
			ID: Counties, Kind: KindGeoJSON, Description: descriptions[Counties], Rows: boundaries.Len(),
		})
	}
	return snap
}

// Store loads every source once and memoizes the result. Concurrent callers
// share one in-flight load. A failed load is not memoized.
type Store struct {
	sources []Source
	fetcher Fetcher
	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics
	opts    Options

	group singleflight.Group

	mu        sync.RWMutex
	snapshot  *Snapshot
	stats     Stats
	listeners []func(*Snapshot)
}

// NewStore creates a store. metrics may be nil.
func NewStore(sources []Source, fetcher Fetcher, logger *slog.Logger, metrics *infrastructure.DashboardMetrics, opts Options) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = len(sources)
	}
	return &Store{
		sources: append([]Source(nil), sources...),
		fetcher: fetcher,
		logger:  infrastructure.WithComponent(logger, "dataset_store"),
		metrics: metrics,
		opts:    opts,
	}
}

// Sources returns the configured sources
func (s *Store) Sources() []Source {
	return append([]Source(nil), s.sources...)
}

// OnLoaded registers fn to run after a load succeeds. If the store is
// already loaded fn runs immediately.
func (s *Store) OnLoaded(fn func(*Snapshot)) {
	s.mu.Lock()
	snap := s.snapshot
	if snap == nil {
		s.listeners = append(s.listeners, fn)
	}
	s.mu.Unlock()

	if snap != nil {
		fn(snap)
	}
}

// Loaded returns the memoized snapshot without triggering a load
func (s *Store) Loaded() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Stats returns a copy of the loader statistics
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Datasets = append([]DatasetStats(nil), s.stats.Datasets...)
	return st
}

// Load returns the snapshot, fetching every source on the first successful
// call. The shared load is detached from ctx so one caller giving up does not
// fail the others; ctx only bounds how long this caller waits.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	if snap := s.Loaded(); snap != nil {
		return snap, nil
	}

	ch := s.group.DoChan("load", func() (interface{}, error) {
		if snap := s.Loaded(); snap != nil {
			return snap, nil
		}
		loadCtx := context.WithoutCancel(ctx)
		if s.opts.LoadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.opts.LoadTimeout)
			defer cancel()
		}
		return s.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

type fetched struct {
	source Source
	bytes  int
	table  *dataprocessing.Table
	bounds *geo.Boundaries
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	loadID := uuid.NewString()
	start := time.Now()
	logger := s.logger.With(slog.String("load_id", loadID))

	s.mu.Lock()
	s.stats.Attempts++
	s.stats.LastAttempt = start
	s.mu.Unlock()

	logger.InfoContext(ctx, "loading datasets",
		slog.Int("sources", len(s.sources)),
		slog.Int("concurrency", s.opts.Concurrency))

	results := make([]fetched, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, src := range s.sources {
		g.Go(func() error {
			res, err := s.fetchOne(gctx, logger, src)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	duration := time.Since(start)
	s.metrics.RecordDatasetLoad(ctx, duration, err)
	if err != nil {
		s.mu.Lock()
		s.stats.Failures++
		s.stats.LastError = err.Error()
		s.mu.Unlock()

		logger.ErrorContext(ctx, "dataset load failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, err
	}

	snap := &Snapshot{
		LoadID:   loadID,
		LoadedAt: time.Now(),
		Duration: duration,
		tables:   make(map[ID]*dataprocessing.Table),
	}
	for _, res := range results {
		if res.bounds != nil {
			snap.boundaries = res.bounds
			snap.datasets = append(snap.datasets, DatasetStats{
				ID: res.source.ID, URL: res.source.URL, Kind: res.source.Kind,
				Description: res.source.Description, Bytes: res.bytes, Rows: res.bounds.Len(),
			})
			continue
		}
		snap.tables[res.source.ID] = res.table
		snap.datasets = append(snap.datasets, tableStats(res.source, res.bytes, res.table))
	}

	s.mu.Lock()
	s.snapshot = snap
	s.stats.Loaded = true
	s.stats.LastError = ""
	s.stats.LoadedAt = snap.LoadedAt
	s.stats.LoadDuration = duration
	s.stats.Datasets = snap.datasets
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	logger.InfoContext(ctx, "datasets loaded",
		slog.Int("tables", len(snap.tables)),
		slog.Duration("duration", duration))

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

func (s *Store) fetchOne(ctx context.Context, logger *slog.Logger, src Source) (fetched, error) {
	start := time.Now()
	data, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return fetched{}, apperrors.NewNetworkError(fmt.Sprintf("failed to fetch dataset %s", src.ID), err).
			WithContext("dataset", string(src.ID)).
			WithContext("url", src.URL)
	}

	res := fetched{source: src, bytes: len(data)}
	rows := 0
	switch src.Kind {
	case KindGeoJSON:
		res.bounds, err = geo.ParseBoundaries(data)
		if err == nil {
			rows = res.bounds.Len()
		}
	default:
		res.table, err = dataprocessing.ReadRegionCSV(bytes.NewReader(data), dataprocessing.ParseOptions{
			Name:   string(src.ID),
			Logger: logger,
		})
		if err == nil {
			rows = res.table.NumRows()
		}
	}
	if err != nil {
		return fetched{}, apperrors.NewParsingError(fmt.Sprintf("failed to parse dataset %s", src.ID), err).
			WithContext("dataset", string(src.ID)).
			WithContext("url", src.URL)
	}

	s.metrics.RecordDatasetFetched(ctx, string(src.ID), int64(len(data)), rows)
	logger.DebugContext(ctx, "dataset fetched",
		slog.String("dataset", string(src.ID)),
		slog.String("url", src.URL),
		slog.Int("bytes", len(data)),
		slog.Int("rows", rows),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

func tableStats(src Source, size int, t *dataprocessing.Table) DatasetStats {
	st := DatasetStats{
		ID:          src.ID,
		URL:         src.URL,
		Kind:        src.Kind,
		Description: src.Description,
		Bytes:       size,
		Rows:        t.NumRows(),
		Columns:     t.NumColumns(),
	}
	if n := len(t.Columns); n > 0 {
		st.FirstMonth = t.Columns[0]
		st.LastMonth = t.Columns[n-1]
	}
	return st
}
