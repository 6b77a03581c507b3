package dashboard

import (
	"time"

	"github.com/haukened/sitepulse/internal/pulse/common/clock"
	"github.com/haukened/sitepulse/internal/pulse/domain"
)

const (
	// RecentMessagesLimit is the number of messages listed on the dashboard.
	RecentMessagesLimit = 10
	// RecentActivityMessages is the number of messages echoed in the activity feed.
	RecentActivityMessages = 2
	// WeeklyWindow is the look-back for the weekly message count.
	WeeklyWindow = 7 * 24 * time.Hour
	// TodayPath is the counter reported as "visits today".
	TodayPath = "/"
)

// Options wires the stores the aggregator reads. Uniques is optional.
type Options struct {
	Visits   VisitCounter
	Presence PresenceTracker
	Messages MessageLog
	Uniques  UniqueCounter
	Clock    clock.Clock
}

// Aggregator computes dashboard snapshots on demand.
type Aggregator struct {
	visits   VisitCounter
	presence PresenceTracker
	messages MessageLog
	uniques  UniqueCounter
	clock    clock.Clock
}

// New returns an Aggregator over the given stores.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		visits:   opts.Visits,
		presence: opts.Presence,
		messages: opts.Messages,
		uniques:  opts.Uniques,
		clock:    opts.Clock,
	}
	if a.clock == nil {
		a.clock = clock.RealClock{}
	}
	return a
}

// Snapshot reads every store once and combines the results. Each read is
// atomic on its own; the reads are not atomic as a group.
func (a *Aggregator) Snapshot() domain.Snapshot {
	now := a.clock.Now()

	totalVisits := a.visits.TotalVisits()
	messagesTotal := a.messages.Count()
	recent := a.messages.Recent(RecentMessagesLimit)

	snap := domain.Snapshot{
		TotalVisits:    totalVisits,
		OnlineUsers:    a.presence.ActiveCount(),
		MessagesTotal:  messagesTotal,
		MessagesWeekly: a.messages.CountSince(now.Add(-WeeklyWindow)),
		RecentMessages: recent,
		ConversionRate: domain.ConversionRate(messagesTotal, totalVisits),
		VisitsToday:    a.visits.VisitsFor(TodayPath),
		VisitsChange:   0,
		RecentActivity: a.activity(recent, now),
		GeneratedAt:    now,
	}
	if a.uniques != nil {
		snap.VisitsUnique = a.uniques.Estimate()
	}
	return snap
}

// activity builds the feed: the newest messages, then one synthetic page view.
func (a *Aggregator) activity(recent []domain.Message, now time.Time) []domain.Activity {
	n := min(RecentActivityMessages, len(recent))
	feed := make([]domain.Activity, 0, n+1)
	for _, m := range recent[:n] {
		feed = append(feed, domain.Activity{
			Actor:     m.Email,
			Action:    domain.ActionSubmittedMessage,
			Timestamp: m.CreatedAt,
		})
	}

	path, _ := a.visits.MostRecentPath()
	feed = append(feed, domain.Activity{
		Actor:     domain.VisitorActor,
		Action:    domain.ActionViewedPagePrefix + path,
		Timestamp: now,
	})
	return feed
}
