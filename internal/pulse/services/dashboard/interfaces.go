package dashboard

import (
	"time"

	"github.com/haukened/sitepulse/internal/pulse/domain"
)

// VisitCounter is the read side of the visit counter.
type VisitCounter interface {
	TotalVisits() int
	VisitsFor(path string) int
	MostRecentPath() (string, bool)
}

// PresenceTracker reports how many clients are online.
type PresenceTracker interface {
	ActiveCount() int
}

// MessageLog is the read side of the message store.
type MessageLog interface {
	Count() int
	CountSince(t time.Time) int
	Recent(n int) []domain.Message
}

// UniqueCounter estimates distinct clients.
type UniqueCounter interface {
	Estimate() uint64
}
