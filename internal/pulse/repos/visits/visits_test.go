package visits

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCounter(t *testing.T, opts Options) *Counter {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidRecentSize(t *testing.T) {
	_, err := New(Options{Recency: LastVisit, RecentSize: 0})
	assert.Error(t, err)
}

func TestNew_FirstSeenIgnoresRecentSize(t *testing.T) {
	c, err := New(Options{RecentSize: -1})
	require.NoError(t, err)
	assert.Equal(t, FirstSeen, c.recency)
	assert.Nil(t, c.recent)
}

func TestCounter_TotalEqualsNumberOfCalls(t *testing.T) {
	c := newCounter(t, Options{})
	paths := []string{"/", "/services", "/", "/about", "/", "/services"}
	for _, p := range paths {
		c.RecordVisit(p)
	}

	assert.Equal(t, len(paths), c.TotalVisits())
	assert.Equal(t, 3, c.VisitsFor("/"))
	assert.Equal(t, 2, c.VisitsFor("/services"))
	assert.Equal(t, 1, c.VisitsFor("/about"))
}

func TestCounter_UnseenPathIsZero(t *testing.T) {
	c := newCounter(t, Options{})
	assert.Equal(t, 0, c.VisitsFor("/never"))
	c.RecordVisit("/")
	assert.Equal(t, 0, c.VisitsFor("/never"))
}

func TestCounter_AnyStringIsAPath(t *testing.T) {
	c := newCounter(t, Options{})
	c.RecordVisit("")
	c.RecordVisit("not a path at all")
	assert.Equal(t, 1, c.VisitsFor(""))
	assert.Equal(t, 2, c.TotalVisits())
}

func TestCounter_MostRecentPath_FirstSeen(t *testing.T) {
	c := newCounter(t, Options{})

	_, ok := c.MostRecentPath()
	assert.False(t, ok)

	c.RecordVisit("/")
	c.RecordVisit("/services")
	c.RecordVisit("/")

	path, ok := c.MostRecentPath()
	assert.True(t, ok)
	assert.Equal(t, "/services", path, "revisiting an older path does not change first-seen order")
}

func TestCounter_MostRecentPath_LastVisit(t *testing.T) {
	c := newCounter(t, Options{Recency: LastVisit, RecentSize: 4})

	_, ok := c.MostRecentPath()
	assert.False(t, ok)

	c.RecordVisit("/")
	c.RecordVisit("/services")
	c.RecordVisit("/")

	path, ok := c.MostRecentPath()
	assert.True(t, ok)
	assert.Equal(t, "/", path)
}

func TestCounter_LastVisit_SmallCacheStillReportsNewest(t *testing.T) {
	c := newCounter(t, Options{Recency: LastVisit, RecentSize: 1})
	for i := 0; i < 10; i++ {
		c.RecordVisit(fmt.Sprintf("/p%d", i))
	}
	path, ok := c.MostRecentPath()
	assert.True(t, ok)
	assert.Equal(t, "/p9", path)
	assert.Equal(t, 10, c.TotalVisits())
}

func TestCounter_MaxPathsOverflow(t *testing.T) {
	c := newCounter(t, Options{MaxPaths: 2})

	c.RecordVisit("/a")
	c.RecordVisit("/b")
	c.RecordVisit("/c")
	c.RecordVisit("/d")
	c.RecordVisit("/a")

	assert.Equal(t, 5, c.TotalVisits(), "overflow keeps the total exact")
	assert.Equal(t, 2, c.VisitsFor("/a"))
	assert.Equal(t, 1, c.VisitsFor("/b"))
	assert.Equal(t, 0, c.VisitsFor("/c"))
	assert.Equal(t, 2, c.VisitsFor(OverflowPath))
	assert.Equal(t, []string{"/a", "/b"}, c.paths())

	path, _ := c.MostRecentPath()
	assert.Equal(t, "/b", path)
}

func TestCounter_PathsReturnsCopy(t *testing.T) {
	c := newCounter(t, Options{})
	c.RecordVisit("/a")
	paths := c.paths()
	paths[0] = "mutated"
	assert.Equal(t, []string{"/a"}, c.paths())
}

func TestCounter_ConcurrentRecordVisit(t *testing.T) {
	c := newCounter(t, Options{Recency: LastVisit, RecentSize: 8})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.RecordVisit(fmt.Sprintf("/p%d", i%5))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 200, c.TotalVisits())
	for i := 0; i < 5; i++ {
		assert.Equal(t, 40, c.VisitsFor(fmt.Sprintf("/p%d", i)))
	}
}
