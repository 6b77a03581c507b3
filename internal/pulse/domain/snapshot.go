package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Activity is one line of the dashboard's cosmetic activity feed.
type Activity struct {
	Actor     string
	Action    string
	Timestamp time.Time
}

const (
	ActionSubmittedMessage = "submitted a message"
	ActionViewedPagePrefix = "viewed page "
	VisitorActor           = "visitor"
)

// Snapshot is a point-in-time dashboard aggregate. It is derived on demand and never stored.
type Snapshot struct {
	TotalVisits    int
	OnlineUsers    int
	MessagesTotal  int
	MessagesWeekly int
	RecentMessages []Message
	ConversionRate string
	VisitsToday    int
	VisitsChange   int // always 0, no history is retained
	VisitsUnique   uint64
	RecentActivity []Activity
	GeneratedAt    time.Time
}

// ConversionRate renders messages/visits as a percentage with one decimal place.
// It returns "0" when no visits were recorded.
func ConversionRate(messages, visits int) string {
	if visits <= 0 {
		return "0"
	}
	rate := float64(messages) / float64(visits) * 100
	return roundTenths(rate).StringFixed(1)
}

// roundTenths rounds the exact binary value of x to one decimal place, ties
// going to the larger neighbor. x must be finite and non-negative.
func roundTenths(x float64) decimal.Decimal {
	r := new(big.Rat).SetFloat64(x)
	r.Mul(r, big.NewRat(10, 1))
	r.Add(r, big.NewRat(1, 2))
	tenths := new(big.Int).Quo(r.Num(), r.Denom())
	return decimal.NewFromBigInt(tenths, -1)
}
