// Package tracking implements the per-request tracking step that runs before
// every tracked request is dispatched.
package tracking

// VisitRecorder counts visits per path.
type VisitRecorder interface {
	RecordVisit(path string)
}

// PresenceToucher marks a client as online.
type PresenceToucher interface {
	Touch(clientID string)
}

// UniqueObserver records distinct clients.
type UniqueObserver interface {
	Observe(clientID string) bool
}

// Options wires the stores the tracker updates. Uniques is optional.
type Options struct {
	Visits   VisitRecorder
	Presence PresenceToucher
	Uniques  UniqueObserver
}

// Tracker updates visit counts and presence for each request.
type Tracker struct {
	visits   VisitRecorder
	presence PresenceToucher
	uniques  UniqueObserver
}

// New returns a Tracker over the given stores.
func New(opts Options) *Tracker {
	return &Tracker{
		visits:   opts.Visits,
		presence: opts.Presence,
		uniques:  opts.Uniques,
	}
}

// Track records one request for path made by clientID.
func (t *Tracker) Track(path, clientID string) {
	t.visits.RecordVisit(path)
	t.presence.Touch(clientID)
	if t.uniques != nil {
		t.uniques.Observe(clientID)
	}
}
