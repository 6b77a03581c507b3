package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gauges are the store readings exported on every scrape.
type Gauges struct {
	OnlineUsers   func() int
	TotalVisits   func() int
	MessagesTotal func() int

	// PendingExpiries is the size of the presence expiry queue.
	PendingExpiries  func() int
	MessagesRetained func() int
	MessagesArchived func() int
}

type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	ContactSubmissions prometheus.Counter
}

// NewMetrics registers request counters and the store gauges on reg.
// Nil gauge functions are skipped.
func NewMetrics(reg prometheus.Registerer, gauges Gauges) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitepulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		}, []string{"method", "code"}),
		ContactSubmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitepulse",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Total number of contact form submissions",
		}),
	}
	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.ContactSubmissions)

	if gauges.OnlineUsers != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "sitepulse",
			Name:      "online_users",
			Help:      "Number of clients seen within the presence window",
		}, func() float64 { return float64(gauges.OnlineUsers()) }))
	}
	if gauges.TotalVisits != nil {
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "sitepulse",
			Name:      "visits_total",
			Help:      "Total number of tracked page visits",
		}, func() float64 { return float64(gauges.TotalVisits()) }))
	}
	if gauges.MessagesTotal != nil {
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "sitepulse",
			Name:      "messages_total",
			Help:      "Total number of stored contact messages",
		}, func() float64 { return float64(gauges.MessagesTotal()) }))
	}
	gaugeFuncs := []struct {
		name, help string
		read       func() int
	}{
		{"presence_pending_expiries", "Number of scheduled presence expiries not yet applied", gauges.PendingExpiries},
		{"messages_retained", "Number of contact messages held in memory", gauges.MessagesRetained},
		{"messages_archived", "Number of contact messages moved to the archive", gauges.MessagesArchived},
	}
	for _, g := range gaugeFuncs {
		if g.read == nil {
			continue
		}
		read := g.read
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "sitepulse",
			Name:      g.name,
			Help:      g.help,
		}, func() float64 { return float64(read()) }))
	}
	return m
}
