package timeline_test

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence/timeline"
)

type interval struct {
	at, duration float64
	name         string
}

func (i *interval) Time() float64     { return i.at }
func (i *interval) Duration() float64 { return i.duration }

func iv(at, duration float64, name string) *interval {
	return &interval{at: at, duration: duration, name: name}
}

func intervalNames(fn func(func(*interval))) []string {
	var result []string
	fn(func(i *interval) {
		result = append(result, i.name)
	})
	return result
}

func TestIntervalMembership(t *testing.T) {
	it := timeline.NewIntervalTimeline[*interval]()
	for _, i := range []*interval{
		iv(0, 4, "a"),
		iv(2, 2, "b"),
		iv(3, math.Inf(1), "c"),
		iv(5, 1, "d"),
	} {
		require.NoError(t, it.Add(i))
	}
	assert.Equal(t, 4, it.Len())

	tests := []struct {
		at       float64
		expected []string
		get      string
	}{
		{at: -1, expected: nil},
		{at: 0, expected: []string{"a"}, get: "a"},
		{at: 2, expected: []string{"a", "b"}, get: "b"},
		{at: 3.5, expected: []string{"a", "b", "c"}, get: "c"},
		{at: 4, expected: []string{"c"}, get: "c"},
		{at: 5, expected: []string{"c", "d"}, get: "d"},
		{at: 1000, expected: []string{"c"}, get: "c"},
	}
	for _, test := range tests {
		got := intervalNames(func(fn func(*interval)) { it.ForEachAtTime(test.at, fn) })
		assert.Equal(t, test.expected, got, "at %v", test.at)
		e, ok := it.Get(test.at)
		if test.get == "" {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, test.get, e.name)
	}
}

func TestIntervalRemoveAndCancel(t *testing.T) {
	it := timeline.NewIntervalTimeline[*interval]()
	a, b, c, d := iv(0, 1, "a"), iv(1, 1, "b"), iv(1, 5, "c"), iv(3, 1, "d")
	for _, i := range []*interval{a, b, c, d} {
		require.NoError(t, it.Add(i))
	}
	assert.True(t, it.Remove(b))
	assert.False(t, it.Remove(b))
	assert.Equal(t, []string{"a", "c", "d"}, intervalNames(it.ForEach))

	assert.Equal(t, []string{"c", "d"}, intervalNames(func(fn func(*interval)) { it.ForEachFrom(1, fn) }))
	it.Cancel(1)
	assert.Equal(t, []string{"a"}, intervalNames(it.ForEach))
	assert.Equal(t, 1, it.Len())

	it.Dispose()
	assert.Equal(t, 0, it.Len())
	assert.Nil(t, intervalNames(it.ForEach))
}

func TestIntervalInvalid(t *testing.T) {
	it := timeline.NewIntervalTimeline[*interval]()
	assert.Error(t, it.Add(iv(math.NaN(), 1, "")))
	assert.Error(t, it.Add(iv(0, -1, "")))
	assert.Equal(t, 0, it.Len())
}

// TestIntervalMatchesLinearScan compares tree queries with brute force.
func TestIntervalMatchesLinearScan(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	it := timeline.NewIntervalTimeline[*interval]()
	var all []*interval
	for i := 0; i < 300; i++ {
		e := iv(float64(r.Intn(100)), float64(r.Intn(20)), "")
		all = append(all, e)
		require.NoError(t, it.Add(e))
	}
	// remove a third of them.
	for i := 0; i < 100; i++ {
		k := r.Intn(len(all))
		require.True(t, it.Remove(all[k]))
		all = append(all[:k], all[k+1:]...)
	}
	require.Equal(t, len(all), it.Len())

	for q := -1.0; q < 125; q += 0.5 {
		var expected []*interval
		for _, e := range all {
			if e.at <= q && q < e.at+e.duration {
				expected = append(expected, e)
			}
		}
		var got []*interval
		it.ForEachAtTime(q, func(e *interval) { got = append(got, e) })
		assert.ElementsMatch(t, expected, got, "query %v", q)
	}

	// in-order traversal is sorted by start.
	var starts []float64
	it.ForEach(func(e *interval) { starts = append(starts, e.at) })
	assert.True(t, sort.Float64sAreSorted(starts))
}
