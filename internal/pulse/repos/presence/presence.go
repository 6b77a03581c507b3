// Package presence tracks which clients are currently online. A client joins the
// active set on every request and leaves it when an expiry scheduled by one of
// its requests comes due.
package presence

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/haukened/sitepulse/internal/pulse/common/clock"
	"github.com/haukened/sitepulse/internal/pulse/common/log"
)

// DefaultWindow is how long a request keeps its client online.
const DefaultWindow = 5 * time.Minute

// Mode selects how scheduled expiries treat later requests from the same client.
type Mode string

const (
	// Independent gives every Touch its own expiry. The first expiry to come
	// due removes the client, even if a later Touch happened in between.
	Independent Mode = "independent"
	// Sliding removes a client only once a full window has passed since its last Touch.
	Sliding Mode = "sliding"
)

// Options configures a Tracker. Zero values fall back to the defaults.
type Options struct {
	Clock  clock.Clock
	Logger log.Logger
	Window time.Duration
	Mode   Mode
}

// Tracker is the set of active client identifiers with self-expiring membership.
// All state is guarded by one mutex; expiries are kept in a min-heap ordered by
// due instant and applied whenever the tracker is touched, read, or swept.
type Tracker struct {
	mu     sync.Mutex
	clock  clock.Clock
	logger log.Logger
	window time.Duration
	mode   Mode

	active map[string]time.Time // client -> last touch
	queue  expiryQueue
}

// New returns an empty Tracker.
func New(opts Options) *Tracker {
	t := &Tracker{
		clock:  opts.Clock,
		logger: opts.Logger,
		window: opts.Window,
		mode:   opts.Mode,
		active: make(map[string]time.Time),
	}
	if t.clock == nil {
		t.clock = clock.RealClock{}
	}
	if t.logger == nil {
		t.logger = log.NewNoopLogger()
	}
	if t.window <= 0 {
		t.window = DefaultWindow
	}
	if t.mode != Sliding {
		t.mode = Independent
	}
	return t
}

// Touch marks client as active and schedules an expiry one window from now.
func (t *Tracker) Touch(client string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.expireLocked(now)

	t.active[client] = now
	heap.Push(&t.queue, expiry{client: client, due: now.Add(t.window)})
}

// ActiveCount returns the number of clients currently online.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked(t.clock.Now())
	return len(t.active)
}

// contains reports whether client is currently online.
func (t *Tracker) contains(client string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked(t.clock.Now())
	_, ok := t.active[client]
	return ok
}

// Scheduled returns the number of expiries that have not come due yet.
func (t *Tracker) Scheduled() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.Len()
}

// Sweep applies every due expiry and returns how many clients left the set.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expireLocked(t.clock.Now())
}

// Run sweeps on every tick of interval until ctx is done. Reads already apply
// due expiries, so the loop only releases memory for idle trackers.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug(nil, "Presence sweeper stopping due to context cancellation")
			return
		case <-ticker.C:
			if removed := t.Sweep(); removed > 0 {
				t.logger.Debug(map[string]any{
					"removed": removed,
					"mode":    string(t.mode),
				}, "Expired inactive clients")
			}
		}
	}
}

// expireLocked pops every expiry due at or before now. Must be called with t.mu held.
func (t *Tracker) expireLocked(now time.Time) int {
	removed := 0
	for t.queue.Len() > 0 && !t.queue[0].due.After(now) {
		e := heap.Pop(&t.queue).(expiry)
		last, ok := t.active[e.client]
		if !ok {
			continue
		}
		if t.mode == Sliding && last.Add(t.window).After(now) {
			continue
		}
		delete(t.active, e.client)
		removed++
	}
	return removed
}

type expiry struct {
	client string
	due    time.Time
}

// expiryQueue is a min-heap of expiries ordered by due instant.
type expiryQueue []expiry

func (q expiryQueue) Len() int           { return len(q) }
func (q expiryQueue) Less(i, j int) bool { return q[i].due.Before(q[j].due) }
func (q expiryQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *expiryQueue) Push(x any) { *q = append(*q, x.(expiry)) }

func (q *expiryQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}
