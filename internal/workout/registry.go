package workout

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// LoadFunc rebuilds a tracker that is not held in memory.
type LoadFunc func(ctx context.Context) (*Tracker, error)

// Registry keeps the live trackers of this process, keyed by session id.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	now      Clock
}

// NewRegistry returns an empty registry. A nil clock means time.Now.
func NewRegistry(now Clock) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		trackers: make(map[string]*Tracker),
		now:      now,
	}
}

// Put registers a started tracker.
func (r *Registry) Put(t *Tracker) {
	id := t.Session().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackers[id] = t
}

// Get returns the tracker of sessionID owned by userID, calling load when it
// is not in memory. A tracker owned by somebody else is reported as not found.
func (r *Registry) Get(ctx context.Context, sessionID, userID string, load LoadFunc) (*Tracker, error) {
	r.mu.Lock()
	t, ok := r.trackers[sessionID]
	r.mu.Unlock()
	if ok {
		if t.Session().UserID != userID {
			return nil, domain.ErrNotFound
		}
		return t, nil
	}

	loaded, err := load(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have restored it meanwhile.
	if existing, ok := r.trackers[sessionID]; ok {
		return existing, nil
	}
	r.trackers[sessionID] = loaded
	return loaded, nil
}

// Forget drops the tracker of sessionID.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, sessionID)
}

// Len returns the number of trackers held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Sweep drops completed trackers and the ones idle for longer than maxIdle.
// Dropped active sessions are restored from the store on next access.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, t := range r.trackers {
		if t.State() == StateCompleted || t.idleSince().Before(cutoff) {
			delete(r.trackers, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				log.WithField("removed", n).Debug("swept idle workout trackers")
			}
		}
	}
}
