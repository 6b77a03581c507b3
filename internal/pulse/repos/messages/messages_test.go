package messages

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/haukened/sitepulse/internal/pulse/common/clock"
	"github.com/haukened/sitepulse/internal/pulse/common/log"
	"github.com/haukened/sitepulse/internal/pulse/domain"
)

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Put(msg domain.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockArchive) CountSince(t time.Time) (int, error) {
	args := m.Called(t)
	return args.Int(0), args.Error(1)
}

var testStart = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(capacity int, archive Archive) (*Store, *clock.MockClock) {
	clk := &clock.MockClock{CurrentTime: testStart}
	opts := Options{Clock: clk, Capacity: capacity}
	if archive != nil {
		opts.Archive = archive
	}
	return New(opts), clk
}

func TestNew_Defaults(t *testing.T) {
	s := New(Options{})
	assert.Equal(t, DefaultCapacity, s.capacity)
	assert.NotNil(t, s.clock)
	assert.NotNil(t, s.logger)
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Recent(10))
}

func TestStore_Submit(t *testing.T) {
	s, _ := newTestStore(10, nil)

	msg := s.Submit("Ana", "ana@example.com", "Quote", "Need a website")

	assert.Equal(t, testStart.UnixMilli(), msg.ID)
	assert.Equal(t, "Ana", msg.Name)
	assert.Equal(t, "ana@example.com", msg.Email)
	assert.Equal(t, "Quote", msg.Subject)
	assert.Equal(t, "Need a website", msg.Body)
	assert.Equal(t, testStart, msg.CreatedAt)
	assert.Equal(t, domain.StatusPending, msg.Status)
	assert.Equal(t, 1, s.Count())
}

func TestStore_Submit_AcceptsEmptyFields(t *testing.T) {
	s, _ := newTestStore(10, nil)
	msg := s.Submit("", "", "", "")
	assert.Equal(t, domain.StatusPending, msg.Status)
	assert.Equal(t, 1, s.Count())
}

func TestStore_Submit_InsertsAtHead(t *testing.T) {
	s, clk := newTestStore(10, nil)

	s.Submit("first", "", "", "")
	clk.Advance(time.Second)
	second := s.Submit("second", "", "", "")

	recent := s.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, second, recent[0])
}

func TestStore_Submit_IDsStrictlyIncrease(t *testing.T) {
	s, _ := newTestStore(10, nil)

	var last int64
	for i := 0; i < 5; i++ {
		msg := s.Submit("", "", "", "") // same instant every time
		assert.Greater(t, msg.ID, last)
		last = msg.ID
	}
	assert.Equal(t, testStart.UnixMilli()+4, last)
}

func TestStore_Submit_LogsSubmission(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clk := &clock.MockClock{CurrentTime: testStart}
	s := New(Options{Clock: clk, Logger: log.NewZapLogger(zap.New(core))})

	msg := s.Submit("Ana", "ana@example.com", "Quote", "body")

	entries := logs.FilterMessage("New message received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, msg.ID, entries[0].ContextMap()["id"])
	assert.Equal(t, "ana@example.com", entries[0].ContextMap()["email"])
}

func TestStore_CountSince(t *testing.T) {
	s, clk := newTestStore(10, nil)

	s.Submit("a", "", "", "")
	clk.Advance(time.Minute)
	s.Submit("b", "", "", "")
	clk.Advance(time.Minute)

	now := clk.Now()
	assert.Equal(t, 0, s.CountSince(now), "messages created before now are not counted")
	assert.Equal(t, 1, s.CountSince(testStart), "strictly after")
	assert.Equal(t, 2, s.CountSince(testStart.Add(-time.Nanosecond)))
	assert.Equal(t, 2, s.CountSince(now.Add(-7*24*time.Hour)))
}

func TestStore_Recent(t *testing.T) {
	s, clk := newTestStore(20, nil)
	for i := 0; i < 12; i++ {
		s.Submit(fmt.Sprintf("m%d", i), "", "", "")
		clk.Advance(time.Second)
	}

	tests := []struct {
		name  string
		n     int
		first string
		want  int
	}{
		{"zero", 0, "", 0},
		{"negative", -3, "", 0},
		{"one", 1, "m11", 1},
		{"ten", 10, "m11", 10},
		{"more than held", 50, "m11", 12},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Recent(tc.n)
			assert.Len(t, got, tc.want)
			if tc.want > 0 {
				assert.Equal(t, tc.first, got[0].Name)
				for i := 1; i < len(got); i++ {
					assert.True(t, got[i-1].CreatedAt.After(got[i].CreatedAt), "newest first")
				}
			}
		})
	}
}

func TestStore_RecentReturnsCopies(t *testing.T) {
	s, _ := newTestStore(10, nil)
	s.Submit("original", "", "", "")

	got := s.Recent(1)
	got[0].Name = "mutated"

	assert.Equal(t, "original", s.Recent(1)[0].Name)
}

func TestStore_CapacityWithoutArchive(t *testing.T) {
	s, clk := newTestStore(3, nil)
	for i := 0; i < 5; i++ {
		s.Submit(fmt.Sprintf("m%d", i), "", "", "")
		clk.Advance(time.Second)
	}

	assert.Equal(t, 5, s.Count(), "count is the lifetime total")
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.CountSince(testStart.Add(-time.Hour)), "evicted messages are gone")

	recent := s.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "m4", recent[0].Name)
	assert.Equal(t, "m2", recent[2].Name)
}

func TestStore_CapacityWithArchive(t *testing.T) {
	archive := new(MockArchive)
	s, clk := newTestStore(2, archive)

	archive.On("Put", mock.MatchedBy(func(m domain.Message) bool { return m.Name == "m0" })).Return(nil).Once()
	for i := 0; i < 3; i++ {
		s.Submit(fmt.Sprintf("m%d", i), "", "", "")
		clk.Advance(time.Second)
	}

	since := testStart.Add(-time.Hour)
	archive.On("CountSince", since).Return(1, nil).Once()
	assert.Equal(t, 3, s.CountSince(since))
	archive.AssertExpectations(t)
}

func TestStore_ArchiveErrorsAreNotFatal(t *testing.T) {
	archive := new(MockArchive)
	s, _ := newTestStore(1, archive)

	archive.On("Put", mock.Anything).Return(errors.New("disk full"))
	archive.On("CountSince", mock.Anything).Return(0, errors.New("disk full"))

	s.Submit("a", "", "", "")
	s.Submit("b", "", "", "")

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 1, s.CountSince(testStart.Add(-time.Hour)), "archive failure falls back to memory")
}

func TestStore_ConcurrentSubmit(t *testing.T) {
	s, _ := newTestStore(1000, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Submit("n", "e", "s", "b")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Count())
	ids := make(map[int64]bool)
	for _, m := range s.Recent(100) {
		assert.False(t, ids[m.ID], "duplicate id %d", m.ID)
		ids[m.ID] = true
	}
}
