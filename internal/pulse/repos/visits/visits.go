package visits

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// OverflowPath collects visits to new paths once the distinct-path limit is reached.
const OverflowPath = "(other)"

// Recency selects what MostRecentPath reports.
type Recency string

const (
	// FirstSeen reports the path most recently added to the counter, i.e. the
	// newest path by first visit. It does not move when an older path is revisited.
	FirstSeen Recency = "first_seen"
	// LastVisit reports the path of the most recent visit.
	LastVisit Recency = "last_visit"
)

// Options configures a Counter.
type Options struct {
	Recency Recency
	// RecentSize bounds the LRU of recently visited paths used by LastVisit.
	RecentSize int
	// MaxPaths bounds the number of paths counted individually. Zero means unlimited.
	MaxPaths int
}

// Counter maps request paths to cumulative visit counts. Counts never decrease
// and paths are never removed.
type Counter struct {
	mu       sync.RWMutex
	counts   map[string]int
	order    []string // first-seen order, excludes OverflowPath
	total    int
	maxPaths int

	recency Recency
	recent  *lru.Cache[string, struct{}]
}

// New returns an empty Counter. It fails only when LastVisit is requested with
// a non-positive RecentSize.
func New(opts Options) (*Counter, error) {
	c := &Counter{
		counts:   make(map[string]int),
		maxPaths: opts.MaxPaths,
		recency:  opts.Recency,
	}
	if c.recency == LastVisit {
		recent, err := lru.New[string, struct{}](opts.RecentSize)
		if err != nil {
			return nil, err
		}
		c.recent = recent
	} else {
		c.recency = FirstSeen
	}
	return c, nil
}

// RecordVisit increments the counter for path by one.
func (c *Counter) RecordVisit(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.counts[path]; !seen && path != OverflowPath {
		if c.maxPaths > 0 && len(c.order) >= c.maxPaths {
			path = OverflowPath
		} else {
			c.order = append(c.order, path)
		}
	}
	c.counts[path]++
	c.total++

	if c.recent != nil {
		c.recent.Add(path, struct{}{})
	}
}

// TotalVisits returns the sum of all counts.
func (c *Counter) TotalVisits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// VisitsFor returns the count for path, or 0 if it was never visited.
func (c *Counter) VisitsFor(path string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[path]
}

// MostRecentPath returns the path selected by the configured Recency.
// It returns false before the first visit.
func (c *Counter) MostRecentPath() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.recent != nil {
		keys := c.recent.Keys() // oldest to newest
		if len(keys) == 0 {
			return "", false
		}
		return keys[len(keys)-1], true
	}

	if len(c.order) == 0 {
		return "", false
	}
	return c.order[len(c.order)-1], true
}

// paths returns the individually counted paths in first-seen order.
func (c *Counter) paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
