package session

import (
	"sync"

	"github.com/claims-dashboard/backend/internal/analytics"
)

// viewRef counts the requests using a view. A retired view is closed once
// the last of them releases it.
type viewRef struct {
	analytics.View

	mu      sync.Mutex
	refs    int
	retired bool
}

func newViewRef(v analytics.View) *viewRef {
	return &viewRef{View: v}
}

// acquire pins the view. The manager calls it under its lock while the view
// is still current, so a retired view is never handed out.
func (r *viewRef) acquire() func() {
	r.mu.Lock()
	r.refs++
	r.mu.Unlock()

	var once sync.Once
	return func() { once.Do(r.release) }
}

func (r *viewRef) release() {
	r.mu.Lock()
	r.refs--
	closeNow := r.retired && r.refs == 0
	r.mu.Unlock()
	if closeNow {
		r.View.Close()
	}
}

// retire marks the view as replaced and closes it when nothing holds it.
func (r *viewRef) retire() error {
	r.mu.Lock()
	if r.retired {
		r.mu.Unlock()
		return nil
	}
	r.retired = true
	closeNow := r.refs == 0
	r.mu.Unlock()
	if closeNow {
		return r.View.Close()
	}
	return nil
}
