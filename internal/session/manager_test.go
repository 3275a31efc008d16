package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claims-dashboard/backend/internal/analytics"
	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/models"
	"github.com/claims-dashboard/backend/internal/testutil"
)

// fakeClock lets tests move time forward.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T, opts Options) (*Manager, *fakeClock) {
	t.Helper()
	m := NewManager(opts, nil, nil)
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m.now = clock.now
	t.Cleanup(m.Close)
	return m, clock
}

func sampleCSV() []byte {
	return testutil.ClaimsCSV(testutil.ScenarioRows()...)
}

func TestLoad_CreatesSession(t *testing.T) {
	m, _ := newTestManager(t, Options{})

	info, err := m.Load(context.Background(), "", "claims.csv", sampleCSV())
	require.NoError(t, err)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "claims.csv", info.FileName)
	assert.Equal(t, 2, info.RowCount)
	assert.Equal(t, analytics.EngineMemory, info.Engine)
	assert.Equal(t, 1, m.Count())

	ds, err := m.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestLoad_ReplacesDatasetWholesale(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()

	info, err := m.Load(ctx, "", "first.csv", sampleCSV())
	require.NoError(t, err)

	third := testutil.Claim("East", "Neurology", "2025-03-01", "Denied", "10", "X")
	replaced, err := m.Load(ctx, info.ID, "second.csv", testutil.ClaimsCSV(third))
	require.NoError(t, err)

	assert.Equal(t, info.ID, replaced.ID)
	assert.Equal(t, "second.csv", replaced.FileName)
	ds, err := m.Get(info.ID)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "East", ds.Claims[0].Region)
}

func TestLoad_FailureKeepsPreviousDataset(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()

	info, err := m.Load(ctx, "", "good.csv", sampleCSV())
	require.NoError(t, err)

	_, err = m.Load(ctx, info.ID, "bad.csv", []byte("Region,Claim_Status\nNorth,Denied\n"))
	var schemaErr *claims.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Missing, models.ColClaimDate)

	_, err = m.Load(ctx, info.ID, "empty.csv", nil)
	assert.ErrorIs(t, err, claims.ErrMalformedCSV)

	current, err := m.Info(info.ID)
	require.NoError(t, err)
	assert.Equal(t, "good.csv", current.FileName)
	assert.Equal(t, 2, current.RowCount)
}

func TestLoad_UnknownSession(t *testing.T) {
	m, _ := newTestManager(t, Options{})

	_, err := m.Load(context.Background(), "missing", "x.csv", sampleCSV())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_IdenticalContentParsedOnce(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()

	a, err := m.Load(ctx, "", "a.csv", sampleCSV())
	require.NoError(t, err)
	b, err := m.Load(ctx, "", "b.csv", sampleCSV())
	require.NoError(t, err)

	dsA, _ := m.Get(a.ID)
	dsB, _ := m.Get(b.ID)
	assert.Same(t, dsA, dsB)
}

func TestLoad_EvictsLeastRecentlyUsed(t *testing.T) {
	m, clock := newTestManager(t, Options{MaxSessions: 2})
	ctx := context.Background()

	first, err := m.Load(ctx, "", "1.csv", sampleCSV())
	require.NoError(t, err)
	clock.advance(time.Minute)
	second, err := m.Load(ctx, "", "2.csv", sampleCSV())
	require.NoError(t, err)
	clock.advance(time.Minute)
	require.NoError(t, m.Touch(first.ID))
	clock.advance(time.Minute)

	_, err = m.Load(ctx, "", "3.csv", sampleCSV())
	require.NoError(t, err)

	assert.Equal(t, 2, m.Count())
	_, err = m.Info(second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Info(first.ID)
	assert.NoError(t, err)
}

func TestCleanupIdle(t *testing.T) {
	m, clock := newTestManager(t, Options{})
	ctx := context.Background()

	stale, err := m.Load(ctx, "", "stale.csv", sampleCSV())
	require.NoError(t, err)
	clock.advance(20 * time.Minute)
	fresh, err := m.Load(ctx, "", "fresh.csv", sampleCSV())
	require.NoError(t, err)
	clock.advance(15 * time.Minute)

	removed := m.CleanupIdle(30 * time.Minute)

	assert.Equal(t, 1, removed)
	_, err = m.View(stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.View(fresh.ID)
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t, Options{})

	info, err := m.Load(context.Background(), "", "x.csv", sampleCSV())
	require.NoError(t, err)

	require.NoError(t, m.Delete(info.ID))
	assert.ErrorIs(t, m.Delete(info.ID), ErrNotFound)
	assert.ErrorIs(t, m.Touch(info.ID), ErrNotFound)
	assert.Equal(t, 0, m.Count())
}

func TestSessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()

	a, err := m.Load(ctx, "", "a.csv", sampleCSV())
	require.NoError(t, err)
	b, err := m.Load(ctx, "", "b.csv", testutil.ClaimsCSV(testutil.Claim("West", "Neurology", "2025-01-01", "Denied", "1", "")))
	require.NoError(t, err)

	view, err := m.View(a.ID)
	require.NoError(t, err)
	s, err := view.Summary(ctx, models.FilterSelection{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Totals.Claims)

	info, err := m.Info(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, info.RowCount)
}

func TestDuckDBEngine_ReplaceRemovesOldFile(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestManager(t, Options{Engine: analytics.EngineDuckDB, TempDir: dir})
	ctx := context.Background()

	info, err := m.Load(ctx, "", "a.csv", sampleCSV())
	require.NoError(t, err)
	files, _ := filepath.Glob(filepath.Join(dir, "*.duckdb"))
	require.Len(t, files, 1)

	_, err = m.Load(ctx, info.ID, "b.csv", testutil.ClaimsCSV(testutil.Claim("West", "Neurology", "2025-01-01", "Denied", "1", "")))
	require.NoError(t, err)

	_, err = os.Stat(files[0])
	assert.True(t, os.IsNotExist(err))

	view, err := m.View(info.ID)
	require.NoError(t, err)
	s, err := view.Summary(ctx, models.FilterSelection{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Totals.Claims)
}

func TestAcquire_ReplacedViewStaysOpenUntilReleased(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestManager(t, Options{Engine: analytics.EngineDuckDB, TempDir: dir})
	ctx := context.Background()

	info, err := m.Load(ctx, "", "a.csv", sampleCSV())
	require.NoError(t, err)

	view, release, err := m.Acquire(info.ID)
	require.NoError(t, err)
	files, _ := filepath.Glob(filepath.Join(dir, "*.duckdb"))
	require.Len(t, files, 1)

	_, err = m.Load(ctx, info.ID, "b.csv", testutil.ClaimsCSV(testutil.Claim("West", "Neurology", "2025-01-01", "Denied", "1", "")))
	require.NoError(t, err)

	// The request that acquired the old view can still query it.
	s, err := view.Summary(ctx, models.FilterSelection{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Totals.Claims)
	_, err = os.Stat(files[0])
	require.NoError(t, err)

	release()
	release()
	_, err = os.Stat(files[0])
	assert.True(t, os.IsNotExist(err))

	current, release, err := m.Acquire(info.ID)
	require.NoError(t, err)
	defer release()
	s, err = current.Summary(ctx, models.FilterSelection{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Totals.Claims)
}

func TestAcquire_DeletedSession(t *testing.T) {
	m, _ := newTestManager(t, Options{Engine: analytics.EngineDuckDB, TempDir: t.TempDir()})
	ctx := context.Background()

	info, err := m.Load(ctx, "", "a.csv", sampleCSV())
	require.NoError(t, err)
	view, release, err := m.Acquire(info.ID)
	require.NoError(t, err)

	require.NoError(t, m.Delete(info.ID))
	_, _, err = m.Acquire(info.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = view.Filter(ctx, models.FilterSelection{Regions: []string{"North"}})
	assert.NoError(t, err)
	release()
}
