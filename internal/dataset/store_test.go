package dataset

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/shared/testutil"
)

func newFixtureStore(t *testing.T, urls map[string]string) *Store {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	sources, err := SourcesFromURLs(urls)
	require.NoError(t, err)
	fetcher := NewHTTPFetcher(5*time.Second, 1<<20, "zillowdata-test")
	return NewStore(sources, fetcher, logger, nil, Options{LoadTimeout: 10 * time.Second, Concurrency: 3})
}

func TestStoreLoadsEverySource(t *testing.T) {
	server := testutil.NewFixtureServer(t)
	store := newFixtureStore(t, server.URLs())

	assert.Nil(t, store.Loaded())

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	for _, id := range TableIDs {
		table, err := snap.Table(id)
		require.NoError(t, err, id)
		assert.Equal(t, string(id), table.Name)
		assert.NotZero(t, table.NumRows())
	}
	require.NotNil(t, snap.Boundaries())
	assert.Equal(t, 3, snap.Boundaries().Len())

	_, err = snap.Table("nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	stats := store.Stats()
	assert.True(t, stats.Loaded)
	assert.Equal(t, 1, stats.Attempts)
	assert.Zero(t, stats.Failures)
	assert.Len(t, stats.Datasets, len(AllIDs))
	assert.Same(t, snap, store.Loaded())
}

func TestStoreLoadIsMemoized(t *testing.T) {
	server := testutil.NewFixtureServer(t)
	store := newFixtureStore(t, server.URLs())

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 16)
	for i := range snaps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := store.Load(context.Background())
			assert.NoError(t, err)
			snaps[i] = snap
		}()
	}
	wg.Wait()

	for _, snap := range snaps[1:] {
		assert.Same(t, snaps[0], snap)
	}

	_, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(AllIDs), server.TotalHits(), "each source fetched exactly once")
	for _, f := range testutil.Fixtures() {
		assert.Equal(t, 1, server.Hits(f.File), f.File)
	}
}

func TestStoreFailureIsNotMemoized(t *testing.T) {
	server := testutil.NewFixtureServer(t)
	server.FailWith("Zip_zori.csv", http.StatusInternalServerError)
	store := newFixtureStore(t, server.URLs())

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	assert.Contains(t, err.Error(), "zip_zori")
	assert.Nil(t, store.Loaded())

	stats := store.Stats()
	assert.False(t, stats.Loaded)
	assert.Equal(t, 1, stats.Failures)
	assert.NotEmpty(t, stats.LastError)

	server.FailWith("Zip_zori.csv", 0)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)

	stats = store.Stats()
	assert.Equal(t, 2, stats.Attempts)
	assert.Equal(t, 1, stats.Failures)
	assert.Empty(t, stats.LastError)
}

func TestStoreMalformedSource(t *testing.T) {
	server := testutil.NewFixtureServer(t)
	urls := server.URLs()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RegionName,2020-01-31\nCalifornia,not-a-number\n"))
	}))
	defer broken.Close()
	urls[string(StateZHVI)] = broken.URL + "/State_zhvi.csv"

	store := newFixtureStore(t, urls)
	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "state_zhvi", appErr.Context["dataset"])
}

func TestStoreLoadsFromDisk(t *testing.T) {
	paths := testutil.WriteFixtureFiles(t, t.TempDir())

	urls := make(map[string]string, len(paths))
	for id, path := range paths {
		if id == string(Counties) {
			urls[id] = "file://" + path
			continue
		}
		urls[id] = path
	}

	store := newFixtureStore(t, urls)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)

	table, err := snap.Table(CountyZHVI)
	require.NoError(t, err)
	assert.Equal(t, 4, table.NumRows())
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, src Source) ([]byte, error) {
	args := m.Called(ctx, src)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type gatedFetcher struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedFetcher) Fetch(ctx context.Context, src Source) ([]byte, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []byte(testutil.Fixtures()[string(src.ID)].Body), nil
}

func TestStoreLoadSurvivesCallerCancel(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	sources, err := SourcesFromURLs(map[string]string{
		string(StateZHVI): "mem://state",
		string(Counties):  "mem://counties",
	})
	require.NoError(t, err)

	fetcher := &gatedFetcher{release: make(chan struct{})}
	store := NewStore(sources, fetcher, logger, nil, Options{LoadTimeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := store.Load(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(fetcher.release)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Boundaries())
	assert.Equal(t, int32(2), fetcher.calls.Load(), "the detached load was reused")
}

func TestStoreNotifiesListeners(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	sources, err := SourcesFromURLs(map[string]string{string(StateZHVI): "mem://state"})
	require.NoError(t, err)

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.MatchedBy(func(s Source) bool { return s.ID == StateZHVI })).
		Return([]byte(testutil.StateZHVICSV()), nil).Once()

	store := NewStore(sources, fetcher, logger, nil, Options{})

	var notified []string
	store.OnLoaded(func(s *Snapshot) { notified = append(notified, "before:"+s.LoadID) })

	snap, err := store.Load(context.Background())
	require.NoError(t, err)

	store.OnLoaded(func(s *Snapshot) { notified = append(notified, "after:"+s.LoadID) })
	assert.Equal(t, []string{"before:" + snap.LoadID, "after:" + snap.LoadID}, notified)

	fetcher.AssertExpectations(t)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "datasets loaded")
}

func TestHTTPFetcher(t *testing.T) {
	var gotAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/missing":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(time.Second, 32, "zillowdata/1.0")
	ctx := context.Background()

	data, err := fetcher.Fetch(ctx, Source{URL: server.URL + "/ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, "zillowdata/1.0", gotAgent.Load())

	_, err = fetcher.Fetch(ctx, Source{URL: server.URL + "/big"})
	assert.ErrorContains(t, err, "exceeds 32 bytes")

	_, err = fetcher.Fetch(ctx, Source{URL: server.URL + "/missing"})
	assert.ErrorContains(t, err, "404")

	_, err = fetcher.Fetch(ctx, Source{URL: "ftp://example.com/file.csv"})
	assert.ErrorContains(t, err, "unsupported scheme")

	_, err = fetcher.Fetch(ctx, Source{URL: "/definitely/not/here.csv"})
	assert.Error(t, err)
}

func TestSourcesFromURLsRejectsUnknown(t *testing.T) {
	_, err := SourcesFromURLs(map[string]string{"bogus": "x"})
	assert.Error(t, err)
}
