package timeline_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/timeline"
)

type event struct {
	at   float64
	name string
}

func (e *event) Time() float64 { return e.at }

func ev(at float64, name string) *event {
	return &event{at: at, name: name}
}

func names(tl *timeline.Timeline[*event]) []string {
	var result []string
	tl.ForEach(func(e *event) {
		result = append(result, e.name)
	})
	return result
}

func fill(t *testing.T, events ...*event) *timeline.Timeline[*event] {
	tl := timeline.New[*event]()
	for _, e := range events {
		require.NoError(t, tl.Add(e))
	}
	return tl
}

func TestAddOrdering(t *testing.T) {
	tl := timeline.New[*event]()
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		require.NoError(t, tl.Add(ev(float64(r.Intn(50)), "")))
	}
	prev := -1.0
	tl.ForEach(func(e *event) {
		assert.True(t, e.at >= prev, "timeline out of order: %s", spew.Sdump(e))
		prev = e.at
	})
	assert.Equal(t, 500, tl.Len())
}

func TestTiesKeepInsertionOrder(t *testing.T) {
	tl := fill(t, ev(1, "a"), ev(0, "first"), ev(1, "b"), ev(2, "c"), ev(1, "c"))
	assert.Equal(t, []string{"first", "a", "b", "c", "c"}, names(tl))

	var at []string
	tl.ForEachAtTime(1, func(e *event) {
		at = append(at, e.name)
	})
	assert.Equal(t, []string{"a", "b", "c"}, at)

	e, ok := tl.Get(1)
	require.True(t, ok)
	assert.Equal(t, "c", e.name)
	assert.Equal(t, 1.0, e.at)
}

func TestQueries(t *testing.T) {
	a, b, c := ev(0, "a"), ev(1, "b"), ev(3, "c")
	tl := fill(t, a, b, c)
	tests := []struct {
		query  float64
		get    *event
		after  *event
		before *event
	}{
		{query: -1, get: nil, after: a, before: nil},
		{query: 0, get: a, after: b, before: nil},
		{query: 0.5, get: a, after: b, before: a},
		{query: 1, get: b, after: c, before: a},
		{query: 2, get: b, after: c, before: b},
		{query: 3, get: c, after: nil, before: b},
		{query: 10, get: c, after: nil, before: c},
	}
	for _, test := range tests {
		got, ok := tl.Get(test.query)
		assert.Equal(t, test.get != nil, ok)
		assert.Equal(t, test.get, got, "get %v", test.query)
		got, ok = tl.GetAfter(test.query)
		assert.Equal(t, test.after != nil, ok)
		assert.Equal(t, test.after, got, "after %v", test.query)
		got, ok = tl.GetBefore(test.query)
		assert.Equal(t, test.before != nil, ok)
		assert.Equal(t, test.before, got, "before %v", test.query)
	}
}

func TestEmptyTimeline(t *testing.T) {
	tl := timeline.New[*event]()
	e, ok := tl.Get(0)
	assert.False(t, ok)
	assert.Nil(t, e)
	_, ok = tl.GetAfter(0)
	assert.False(t, ok)
	_, ok = tl.GetBefore(0)
	assert.False(t, ok)
	_, ok = tl.Peek()
	assert.False(t, ok)
	_, ok = tl.Shift()
	assert.False(t, ok)
	tl.Cancel(0)
	tl.ForEachAtTime(0, func(*event) { t.Fatal("unexpected event") })
	assert.False(t, tl.Remove(ev(0, "")))
}

func TestCancel(t *testing.T) {
	tests := []struct {
		after    float64
		expected []string
	}{
		{after: 0, expected: nil},
		{after: 1, expected: []string{"a"}},
		{after: 1.5, expected: []string{"a", "b", "c"}},
		{after: 5, expected: []string{"a", "b", "c", "d"}},
	}
	for _, test := range tests {
		tl := fill(t, ev(0, "a"), ev(1, "b"), ev(1, "c"), ev(2, "d"))
		tl.Cancel(test.after)
		assert.Equal(t, test.expected, names(tl), "cancel after %v", test.after)
	}

	tl := fill(t, ev(0, "a"), ev(1, "b"), ev(2, "c"))
	tl.CancelBefore(1)
	assert.Equal(t, []string{"c"}, names(tl))
}

func TestRemoveAndPrevious(t *testing.T) {
	a, b, c := ev(1, "a"), ev(1, "b"), ev(2, "c")
	tl := fill(t, a, b, c)
	p, ok := tl.Previous(c)
	require.True(t, ok)
	assert.Equal(t, b, p)
	_, ok = tl.Previous(a)
	assert.False(t, ok)

	assert.True(t, tl.Remove(b))
	assert.False(t, tl.Remove(b))
	assert.Equal(t, []string{"a", "c"}, names(tl))
}

func TestIterationRanges(t *testing.T) {
	tl := fill(t, ev(0, "a"), ev(1, "b"), ev(2, "c"), ev(3, "d"))
	collect := func(fn func(func(*event))) []string {
		var result []string
		fn(func(e *event) { result = append(result, e.name) })
		return result
	}
	assert.Equal(t, []string{"a", "b"}, collect(func(fn func(*event)) { tl.ForEachBefore(1, fn) }))
	assert.Equal(t, []string{"c", "d"}, collect(func(fn func(*event)) { tl.ForEachAfter(1, fn) }))
	assert.Equal(t, []string{"b", "c", "d"}, collect(func(fn func(*event)) { tl.ForEachFrom(1, fn) }))
	assert.Equal(t, []string{"b", "c"}, collect(func(fn func(*event)) { tl.ForEachBetween(1, 3, fn) }))
}

func TestIterateWhileMutating(t *testing.T) {
	tl := fill(t, ev(1, "a"), ev(1, "b"), ev(1, "c"))
	var seen []string
	tl.ForEachAtTime(1, func(e *event) {
		seen = append(seen, e.name)
		tl.Remove(e)
		_ = tl.Add(ev(1, "late"))
	})
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, []string{"late", "late", "late"}, names(tl))
}

func TestMemory(t *testing.T) {
	tl := timeline.New[*event](timeline.WithMemory(3))
	for i := 0; i < 10; i++ {
		require.NoError(t, tl.Add(ev(float64(i), string(rune('a'+i)))))
	}
	assert.Equal(t, []string{"h", "i", "j"}, names(tl))
}

func TestIncreasing(t *testing.T) {
	tl := timeline.New[*event](timeline.WithIncreasing())
	require.NoError(t, tl.Add(ev(1, "a")))
	require.NoError(t, tl.Add(ev(1, "b")))
	err := tl.Add(ev(0.5, "c"))
	assert.True(t, errors.Is(err, cadence.ErrInvalidArgument))
	assert.Equal(t, 2, tl.Len())
}

func TestGetBy(t *testing.T) {
	tl := fill(t, ev(0, "a"), ev(1, "b"), ev(2, "c"))
	double := func(e *event) float64 { return e.at * 2 }
	e, ok := tl.GetBy(double, 3)
	require.True(t, ok)
	assert.Equal(t, "b", e.name)
	e, ok = tl.GetAfterBy(double, 3)
	require.True(t, ok)
	assert.Equal(t, "c", e.name)
}
