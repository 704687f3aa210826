package datasource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"studentpulse/pkg/contracts/domain"
)

// DefaultLoadTimeout bounds a single load when no timeout is configured.
const DefaultLoadTimeout = 30 * time.Second

// Snapshot is one successful load of the dataset.
type Snapshot struct {
	Records  []domain.StudentRecord
	Version  int64
	LoadedAt time.Time
	Origin   string
	Duration time.Duration
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Records = make([]domain.StudentRecord, len(s.Records))
	for i, r := range s.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// Status describes the cached dataset without copying its records.
type Status struct {
	Loaded      bool      `json:"loaded"`
	Version     int64     `json:"version"`
	Records     int       `json:"records"`
	Origin      string    `json:"origin"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitempty"`
}

// Listener is called after every successful load with a private copy of
// the new snapshot.
type Listener func(Snapshot)

// Option configures a DataSource
type Option func(*DataSource)

// WithLoadTimeout bounds each load of the underlying RowSource.
func WithLoadTimeout(d time.Duration) Option {
	return func(ds *DataSource) {
		if d > 0 {
			ds.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(ds *DataSource) {
		ds.now = now
	}
}

// DataSource caches the latest parsed dataset from a RowSource.
type DataSource struct {
	source  RowSource
	schema  Schema
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	snapshot  *Snapshot
	lastErr   error
	lastErrAt time.Time
	listeners []Listener
}

// New creates a DataSource. Nothing is read until the first call to
// Records, Snapshot or Reload.
func New(source RowSource, schema Schema, logger *slog.Logger, opts ...Option) *DataSource {
	if logger == nil {
		logger = slog.Default()
	}
	ds := &DataSource{
		source:  source,
		schema:  schema,
		logger:  logger.With(slog.String("component", "datasource"), slog.String("origin", source.Origin())),
		timeout: DefaultLoadTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Schema returns the column schema the source parses with
func (d *DataSource) Schema() Schema {
	return Schema{Subjects: append([]string(nil), d.schema.Subjects...)}
}

// Records returns a copy of the cached records, loading them on first use.
func (d *DataSource) Records(ctx context.Context) ([]domain.StudentRecord, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// Snapshot returns a copy of the cached snapshot, loading it on first use.
func (d *DataSource) Snapshot(ctx context.Context) (Snapshot, error) {
	d.mu.RLock()
	snap := d.snapshot
	d.mu.RUnlock()

	if snap != nil {
		return snap.clone(), nil
	}
	return d.load(ctx, false)
}

// Reload reads the source again. On failure the previous snapshot stays
// in place and the error is returned.
func (d *DataSource) Reload(ctx context.Context) (Snapshot, error) {
	return d.load(ctx, true)
}

// Subscribe registers l to be called after each successful load.
func (d *DataSource) Subscribe(l Listener) {
	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()
}

// Status reports what is currently cached.
func (d *DataSource) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st := Status{Origin: d.source.Origin()}
	if d.snapshot != nil {
		st.Loaded = true
		st.Version = d.snapshot.Version
		st.Records = len(d.snapshot.Records)
		st.LoadedAt = d.snapshot.LoadedAt
	}
	if d.lastErr != nil {
		st.LastError = d.lastErr.Error()
		st.LastErrorAt = d.lastErrAt
	}
	return st
}

// load coalesces concurrent callers onto one read. The read itself is not
// cancelled when an individual caller gives up. Unless force is set, a
// snapshot stored while the caller was queued is returned as is. Forced
// loads use their own flight so a reload never joins a lazy first load
// that may answer from the cache.
func (d *DataSource) load(ctx context.Context, force bool) (Snapshot, error) {
	key := "load"
	if force {
		key = "reload"
	}
	ch := d.group.DoChan(key, func() (interface{}, error) {
		if !force {
			d.mu.RLock()
			snap := d.snapshot
			d.mu.RUnlock()
			if snap != nil {
				return *snap, nil
			}
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		return d.readAndStore(loadCtx)
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot).clone(), nil
	}
}

func (d *DataSource) readAndStore(ctx context.Context) (Snapshot, error) {
	start := d.now()

	table, err := d.source.Load(ctx)
	if err == nil {
		var records []domain.StudentRecord
		records, err = ParseTable(table, d.schema)
		if err == nil {
			return d.store(records, start), nil
		}
	}

	d.mu.Lock()
	d.lastErr = err
	d.lastErrAt = d.now()
	kept := d.snapshot != nil
	d.mu.Unlock()

	d.logger.ErrorContext(ctx, "dataset load failed",
		slog.String("error", err.Error()),
		slog.Bool("kept_previous", kept),
	)
	return Snapshot{}, err
}

func (d *DataSource) store(records []domain.StudentRecord, start time.Time) Snapshot {
	d.mu.Lock()
	version := int64(1)
	if d.snapshot != nil {
		version = d.snapshot.Version + 1
	}
	loadedAt := d.now()
	snap := &Snapshot{
		Records:  records,
		Version:  version,
		LoadedAt: loadedAt,
		Origin:   d.source.Origin(),
		Duration: loadedAt.Sub(start),
	}
	d.snapshot = snap
	d.lastErr = nil
	d.lastErrAt = time.Time{}
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	d.logger.Info("dataset loaded",
		slog.Int64("version", snap.Version),
		slog.Int("records", len(records)),
		slog.Duration("duration", snap.Duration),
	)

	for _, l := range listeners {
		l(snap.clone())
	}
	return *snap
}
