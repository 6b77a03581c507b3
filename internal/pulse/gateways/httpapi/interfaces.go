package httpapi

import "github.com/haukened/sitepulse/internal/pulse/domain"

// RequestTracker records one request before it is dispatched.
type RequestTracker interface {
	Track(path, clientID string)
}

// MessageSubmitter stores contact submissions.
type MessageSubmitter interface {
	Submit(name, email, subject, body string) domain.Message
}

// SnapshotProvider computes dashboard snapshots.
type SnapshotProvider interface {
	Snapshot() domain.Snapshot
}
