package messages

import (
	"sync"
	"time"

	"github.com/haukened/sitepulse/internal/pulse/common/clock"
	"github.com/haukened/sitepulse/internal/pulse/common/log"
	"github.com/haukened/sitepulse/internal/pulse/domain"
)

// DefaultCapacity is the number of messages kept in memory when Options.Capacity is unset.
const DefaultCapacity = 1000

// Archive receives messages evicted from memory.
type Archive interface {
	Put(msg domain.Message) error
	CountSince(t time.Time) (int, error)
}

// Options configures a Store.
type Options struct {
	Clock    clock.Clock
	Logger   log.Logger
	Capacity int
	Archive  Archive // optional
}

// Store is the log of contact submissions, most recent first.
// At most Capacity messages stay in memory; older ones go to the Archive
// when one is configured and are dropped otherwise.
type Store struct {
	mu       sync.RWMutex
	clock    clock.Clock
	logger   log.Logger
	capacity int
	archive  Archive

	retained []domain.Message // oldest first; the head of the log is the last element
	total    int
	lastID   int64
}

// New returns an empty Store.
func New(opts Options) *Store {
	s := &Store{
		clock:    opts.Clock,
		logger:   opts.Logger,
		capacity: opts.Capacity,
		archive:  opts.Archive,
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.logger == nil {
		s.logger = log.NewNoopLogger()
	}
	if s.capacity <= 0 {
		s.capacity = DefaultCapacity
	}
	return s
}

// Submit stores a new pending message at the head of the log and returns it.
func (s *Store) Submit(name, email, subject, body string) domain.Message {
	s.mu.Lock()

	now := s.clock.Now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	msg := domain.NewMessage(id, name, email, subject, body, now)
	s.retained = append(s.retained, msg)
	s.total++

	for len(s.retained) > s.capacity {
		s.evictLocked()
	}
	s.mu.Unlock()

	s.logger.Info(map[string]any{
		"id":      msg.ID,
		"name":    msg.Name,
		"email":   msg.Email,
		"subject": msg.Subject,
		"date":    msg.CreatedAt,
	}, "New message received")

	return msg
}

// evictLocked moves the oldest retained message to the archive. Must be called with s.mu held.
func (s *Store) evictLocked() {
	oldest := s.retained[0]
	s.retained[0] = domain.Message{}
	s.retained = s.retained[1:]

	if s.archive == nil {
		return
	}
	if err := s.archive.Put(oldest); err != nil {
		s.logger.Warn(map[string]any{
			"id":    oldest.ID,
			"error": err,
		}, "Failed to archive evicted message")
	}
}

// Count returns the number of messages ever submitted.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Len returns the number of messages held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.retained)
}

// CountSince returns the number of messages created strictly after t.
// Without an archive, evicted messages are not counted.
func (s *Store) CountSince(t time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.retained {
		if m.CreatedAfter(t) {
			n++
		}
	}

	if s.archive != nil {
		archived, err := s.archive.CountSince(t)
		if err != nil {
			s.logger.Warn(map[string]any{"error": err}, "Failed to count archived messages")
		} else {
			n += archived
		}
	}
	return n
}

// Recent returns up to n messages, most recent first.
func (s *Store) Recent(n int) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return []domain.Message{}
	}
	if n > len(s.retained) {
		n = len(s.retained)
	}
	out := make([]domain.Message, 0, n)
	for i := len(s.retained) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.retained[i])
	}
	return out
}
