package datasource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/internal/dataprocessing"
	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts/domain"
)

// fakeSource serves tables from a function and counts loads.
type fakeSource struct {
	loads atomic.Int32
	gate  chan struct{}
	load  func(n int32) (Table, error)
}

func (f *fakeSource) Origin() string { return "fake" }

func (f *fakeSource) Load(ctx context.Context) (Table, error) {
	n := f.loads.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return Table{}, ctx.Err()
		}
	}
	return f.load(n)
}

func studentTable(names ...string) Table {
	t := Table{Header: []string{"Name", "Math", "Science", "English", "Attendance"}}
	for _, n := range names {
		t.Rows = append(t.Rows, []string{n, "80", "80", "80", "90"})
	}
	return t
}

func TestDataSource_LoadsOnce(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{load: func(int32) (Table, error) { return studentTable("Ana", "Ben"), nil }}
	ds := New(src, DefaultSchema(), logger)

	assert.False(t, ds.Status().Loaded)

	for i := 0; i < 3; i++ {
		records, err := ds.Records(context.Background())
		require.NoError(t, err)
		assert.Len(t, records, 2)
	}

	assert.Equal(t, int32(1), src.loads.Load())
	st := ds.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, int64(1), st.Version)
	assert.Equal(t, 2, st.Records)
	assert.Equal(t, "fake", st.Origin)
}

func TestDataSource_ReloadBumpsVersion(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{load: func(n int32) (Table, error) {
		if n == 1 {
			return studentTable("Ana"), nil
		}
		return studentTable("Ana", "Ben", "Cy"), nil
	}}
	ds := New(src, DefaultSchema(), logger)

	first, err := ds.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)

	second, err := ds.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.Len(t, second.Records, 3)

	records, err := ds.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestDataSource_FailedReloadKeepsSnapshot(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	boom := errors.New("disk gone")
	src := &fakeSource{load: func(n int32) (Table, error) {
		if n == 1 {
			return studentTable("Ana"), nil
		}
		return Table{}, boom
	}}
	ds := New(src, DefaultSchema(), logger)

	_, err := ds.Records(context.Background())
	require.NoError(t, err)

	_, err = ds.Reload(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, logs.ContainsMessage("dataset load failed"))

	records, err := ds.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	st := ds.Status()
	assert.Equal(t, int64(1), st.Version)
	assert.Equal(t, "disk gone", st.LastError)
}

func TestDataSource_FirstLoadFailureIsReturned(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{load: func(int32) (Table, error) {
		return Table{Header: []string{"Name", "Math"}}, nil
	}}
	ds := New(src, DefaultSchema(), logger)

	_, err := ds.Records(context.Background())
	require.Error(t, err)
	assert.True(t, dataprocessing.IsSchemaError(err))
	assert.False(t, ds.Status().Loaded)

	// A later call retries
	_, _ = ds.Records(context.Background())
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestDataSource_ConcurrentLoadsCoalesce(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{
		gate: make(chan struct{}),
		load: func(int32) (Table, error) { return studentTable("Ana"), nil },
	}
	ds := New(src, DefaultSchema(), logger)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ds.Records(context.Background())
			errs <- err
		}()
	}

	// Let the callers pile up behind the single in-flight load
	require.Eventually(t, func() bool { return src.loads.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestDataSource_ReloadDoesNotJoinLazyLoad(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{
		gate: make(chan struct{}),
		load: func(n int32) (Table, error) {
			if n == 1 {
				return studentTable("Ana"), nil
			}
			return studentTable("Ana", "Ben"), nil
		},
	}
	ds := New(src, DefaultSchema(), logger)

	lazy := make(chan error, 1)
	go func() {
		_, err := ds.Records(context.Background())
		lazy <- err
	}()
	require.Eventually(t, func() bool { return src.loads.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		snap Snapshot
		err  error
	}
	reloaded := make(chan result, 1)
	go func() {
		snap, err := ds.Reload(context.Background())
		reloaded <- result{snap, err}
	}()

	// The reload starts its own read instead of waiting on the lazy one
	require.Eventually(t, func() bool { return src.loads.Load() == 2 }, time.Second, time.Millisecond)
	close(src.gate)

	require.NoError(t, <-lazy)
	res := <-reloaded
	require.NoError(t, res.err)
	assert.Len(t, res.snap.Records, 2)
}

func TestDataSource_CallerCancelDoesNotAbortLoad(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{
		gate: make(chan struct{}),
		load: func(int32) (Table, error) { return studentTable("Ana"), nil },
	}
	ds := New(src, DefaultSchema(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ds.Records(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return src.loads.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(src.gate)
	require.Eventually(t, func() bool { return ds.Status().Loaded }, time.Second, time.Millisecond)
}

func TestDataSource_LoadTimeout(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{
		gate: make(chan struct{}),
		load: func(int32) (Table, error) { return studentTable("Ana"), nil },
	}
	ds := New(src, DefaultSchema(), logger, WithLoadTimeout(10*time.Millisecond))

	_, err := ds.Records(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDataSource_ReturnsCopies(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{load: func(int32) (Table, error) { return studentTable("Ana"), nil }}
	ds := New(src, DefaultSchema(), logger)

	records, err := ds.Records(context.Background())
	require.NoError(t, err)
	records[0].Name = "Mallory"
	records[0].Scores["Math"] = domain.Float(0)

	again, err := ds.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", again[0].Name)
	assert.Equal(t, domain.Float(80), again[0].Scores["Math"])
}

func TestDataSource_ListenersSeeEachLoad(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	src := &fakeSource{load: func(int32) (Table, error) { return studentTable("Ana"), nil }}

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ds := New(src, DefaultSchema(), logger, WithClock(func() time.Time { return fixed }))

	var versions []int64
	ds.Subscribe(func(s Snapshot) {
		versions = append(versions, s.Version)
		s.Records[0].Name = "changed"
		assert.Equal(t, fixed, s.LoadedAt)
	})

	_, err := ds.Records(context.Background())
	require.NoError(t, err)
	_, err = ds.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, versions)

	records, err := ds.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", records[0].Name)
}
