// Package session holds each dashboard session's canonical dataset and the
// query view built over it.
package session

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/claims-dashboard/backend/internal/analytics"
	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/metrics"
	"github.com/claims-dashboard/backend/internal/models"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// DefaultMaxSessions limits concurrent sessions to bound memory use.
const DefaultMaxSessions = 50

// Options configure a Manager.
type Options struct {
	// Engine selects the analytics view implementation.
	Engine string
	// TempDir holds per-session DuckDB files.
	TempDir string
	// MaxSessions is the session cap; the least recently used session is
	// evicted to make room.
	MaxSessions int
	// ParseCacheTTL is how long parsed uploads are memoized by content.
	ParseCacheTTL time.Duration
}

// Manager tracks sessions. The mutex guards the session map only; each
// session's dataset is an immutable snapshot swapped wholesale.
type Manager struct {
	sessions map[string]*state
	mu       sync.RWMutex

	parsed  *gocache.Cache
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Collectors
	now     func() time.Time
}

type state struct {
	info       models.SessionInfo
	view       *viewRef
	lastAccess time.Time
}

// NewManager creates a session manager. logger and m may be nil.
func NewManager(opts Options, logger *slog.Logger, m *metrics.Collectors) *Manager {
	if opts.Engine == "" {
		opts.Engine = analytics.EngineMemory
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.ParseCacheTTL <= 0 {
		opts.ParseCacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*state),
		parsed:   gocache.New(opts.ParseCacheTTL, 2*opts.ParseCacheTTL),
		opts:     opts,
		logger:   logger.With("component", "session"),
		metrics:  m,
		now:      time.Now,
	}
}

// Load parses data and makes it the canonical dataset of sessionID. An
// empty sessionID creates a new session. On any failure the session keeps
// its previous dataset.
func (m *Manager) Load(ctx context.Context, sessionID, name string, data []byte) (*models.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sessionID != "" {
		m.mu.RLock()
		_, ok := m.sessions[sessionID]
		m.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
	}

	start := m.now()
	ds, err := m.parse(data)
	if err != nil {
		m.metrics.ObserveUpload(uploadResult(err), 0)
		m.logger.Info("upload rejected", "session", shortID(sessionID), "file", name, "error", err)
		return nil, err
	}

	view, err := analytics.NewView(m.opts.Engine, m.opts.TempDir, uuid.NewString(), ds)
	if err != nil {
		return nil, fmt.Errorf("build %s view: %w", m.opts.Engine, err)
	}

	now := m.now()
	info := models.SessionInfo{
		ID:         sessionID,
		FileName:   name,
		RowCount:   ds.Len(),
		Columns:    append([]string(nil), ds.Columns...),
		Engine:     m.opts.Engine,
		LoadedAt:   now,
		LastAccess: now,
	}

	ref := newViewRef(view)
	var replaced *viewRef
	var evicted []*state
	m.mu.Lock()
	if sessionID == "" {
		info.ID = uuid.NewString()
		evicted = m.evictLocked(m.opts.MaxSessions - 1)
		m.sessions[info.ID] = &state{info: info, view: ref, lastAccess: now}
	} else if st, ok := m.sessions[sessionID]; ok {
		replaced = st.view
		st.info = info
		st.view = ref
		st.lastAccess = now
	} else {
		// Deleted while parsing.
		m.mu.Unlock()
		view.Close()
		return nil, ErrNotFound
	}
	count := len(m.sessions)
	m.mu.Unlock()

	// Requests still holding the old view keep it until they release it.
	if replaced != nil {
		replaced.retire()
	}
	for _, st := range evicted {
		st.view.retire()
	}
	m.metrics.SetActiveSessions(count)
	m.metrics.ObserveUpload(metrics.ResultAccepted, ds.Len())
	m.logger.Info("dataset loaded",
		"session", shortID(info.ID),
		"file", name,
		"rows", ds.Len(),
		"engine", m.opts.Engine,
		"elapsed", time.Since(start).Round(time.Millisecond))

	out := info
	return &out, nil
}

// parse loads data through the content-hash memo.
func (m *Manager) parse(data []byte) (*models.Dataset, error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if cached, ok := m.parsed.Get(key); ok {
		return cached.(*models.Dataset), nil
	}
	ds, err := claims.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	m.parsed.SetDefault(key, ds)
	return ds, nil
}

func uploadResult(err error) string {
	var schemaErr *claims.SchemaError
	if errors.As(err, &schemaErr) {
		return metrics.ResultRejected
	}
	return metrics.ResultMalformed
}

// evictLocked removes least recently used sessions until at most keep
// remain, returning them so their views can be closed outside the lock.
func (m *Manager) evictLocked(keep int) []*state {
	if len(m.sessions) <= keep {
		return nil
	}
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.sessions[ids[i]].lastAccess.Before(m.sessions[ids[j]].lastAccess)
	})

	var evicted []*state
	for _, id := range ids[:len(ids)-keep] {
		evicted = append(evicted, m.sessions[id])
		delete(m.sessions, id)
		m.logger.Info("evicted session to free memory", "session", shortID(id))
	}
	return evicted
}

// Get returns the canonical dataset of a session.
func (m *Manager) Get(id string) (*models.Dataset, error) {
	view, err := m.View(id)
	if err != nil {
		return nil, err
	}
	return view.Dataset(), nil
}

// View returns the query view of a session and marks it as used. The view
// is not pinned: replacing the dataset may close it. Queries use Acquire.
func (m *Manager) View(id string) (analytics.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	st.lastAccess = m.now()
	return st.view.View, nil
}

// Acquire returns the query view of a session pinned until release is
// called. A replaced or deleted view stays open for its holders.
func (m *Manager) Acquire(id string) (view analytics.View, release func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	st.lastAccess = m.now()
	return st.view.View, st.view.acquire(), nil
}

// Info describes a session.
func (m *Manager) Info(id string) (*models.SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	info := st.info
	info.LastAccess = st.lastAccess
	return &info, nil
}

// Touch keeps a session from being cleaned up.
func (m *Manager) Touch(id string) error {
	_, err := m.View(id)
	return err
}

// Delete closes and removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	st, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	m.metrics.SetActiveSessions(count)
	return st.view.retire()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdle removes sessions not accessed within maxIdle and returns how
// many were removed.
func (m *Manager) CleanupIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var expired []*state
	for id, st := range m.sessions {
		if st.lastAccess.Before(cutoff) {
			expired = append(expired, st)
			delete(m.sessions, id)
			m.logger.Info("cleaned up idle session",
				"session", shortID(id),
				"idle", m.now().Sub(st.lastAccess).Round(time.Second))
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, st := range expired {
		if err := st.view.retire(); err != nil {
			m.logger.Warn("closing session view", "error", err)
		}
	}
	m.metrics.SetActiveSessions(count)
	return len(expired)
}

// RunCleanup calls CleanupIdle every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupIdle(maxIdle)
		case <-ctx.Done():
			return
		}
	}
}

// Close releases every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*state)
	m.mu.Unlock()

	for _, st := range all {
		st.view.retire()
	}
	m.metrics.SetActiveSessions(0)
}

// shortID truncates an id for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
