package uniques

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimator_Observe(t *testing.T) {
	e := New(1000, 0.01)

	assert.True(t, e.Observe("1.2.3.4"))
	assert.False(t, e.Observe("1.2.3.4"))
	assert.True(t, e.Observe("5.6.7.8"))
	assert.Equal(t, uint64(2), e.Estimate())
}

func TestEstimator_NeverOvercounts(t *testing.T) {
	e := New(10000, 0.001)
	for round := 0; round < 3; round++ {
		for i := 0; i < 1000; i++ {
			e.Observe(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		}
	}
	got := e.Estimate()
	assert.LessOrEqual(t, got, uint64(1000))
	assert.GreaterOrEqual(t, got, uint64(990), "false positives at 0.1%% should be rare")
}

func TestEstimator_Concurrent(t *testing.T) {
	e := New(1000, 0.01)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e.Observe(fmt.Sprintf("client-%d", i%10))
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, e.Estimate(), uint64(10))
	assert.GreaterOrEqual(t, e.Estimate(), uint64(9))
}

func TestSize(t *testing.T) {
	tests := []struct {
		name  string
		n     uint64
		p     float64
		wantM uint64
		wantK uint8
	}{
		{"typical", 1000, 0.01, 9586, 7},
		{"zero n clamps to one", 0, 0.01, 10, 7},
		{"invalid p defaults", 1000, 1.5, 9586, 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, k := size(tc.n, tc.p)
			assert.Equal(t, tc.wantM, m)
			assert.Equal(t, tc.wantK, k)
		})
	}
}
