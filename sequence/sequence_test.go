package sequence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/internal/mock"
	"github.com/dudk/cadence/sequence"
	"github.com/dudk/cadence/transport"
	"github.com/dudk/cadence/units"
)

const block = 1.0 / 128

type hit struct {
	time  float64
	value int
}

type recorder struct {
	hits []hit
}

func (r *recorder) callback(time float64, v int) error {
	r.hits = append(r.hits, hit{time, v})
	return nil
}

func (r *recorder) values() []int {
	var result []int
	for _, h := range r.hits {
		result = append(result, h.value)
	}
	return result
}

func pattern() []sequence.Step[int] {
	return []sequence.Step[int]{
		sequence.Note(1),
		sequence.Group(sequence.Note(2), sequence.Note(3)),
		sequence.Rest[int](),
		sequence.Note(4),
	}
}

func setup(t *testing.T, opts ...sequence.Option) (*mock.Context, *transport.Transport, *sequence.Sequence[int], *recorder) {
	t.Helper()
	ctx := &mock.Context{}
	tr, err := transport.New(ctx)
	require.NoError(t, err)
	r := &recorder{}
	s, err := sequence.New(tr, r.callback, pattern(), opts...)
	require.NoError(t, err)
	return ctx, tr, s, r
}

func TestEvents(t *testing.T) {
	_, _, s, _ := setup(t, sequence.WithSubdivision(units.Expr("4n")))
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 768.0, s.Duration())
	assert.Equal(t, []sequence.Event[int]{
		{Ticks: 0, Value: 1},
		{Ticks: 192, Value: 2},
		{Ticks: 288, Value: 3},
		{Ticks: 576, Value: 4},
	}, s.Events())
}

func TestPlay(t *testing.T) {
	tests := []struct {
		loop     bool
		expected []hit
	}{
		{
			loop: false,
			expected: []hit{
				{0, 1}, {0.5, 2}, {0.75, 3}, {1.5, 4},
			},
		},
		{
			loop: true,
			expected: []hit{
				{0, 1}, {0.5, 2}, {0.75, 3}, {1.5, 4},
				{2, 1}, {2.5, 2}, {2.75, 3}, {3.5, 4},
			},
		},
	}
	for _, test := range tests {
		ctx, tr, s, r := setup(t, sequence.WithSubdivision(units.Expr("4n")), sequence.WithLoop(test.loop))
		assert.Equal(t, test.loop, s.Loop())
		require.NoError(t, s.Start(units.Seconds(0)))
		assert.True(t, s.Started())
		require.NoError(t, tr.Start(units.Seconds(0)))
		ctx.AdvanceTo(block, 4)

		require.Len(t, r.hits, len(test.expected))
		for i, h := range test.expected {
			assert.InDelta(t, h.time, r.hits[i].time, 1e-9)
			assert.Equal(t, h.value, r.hits[i].value)
		}
	}
}

func TestSetRebuild(t *testing.T) {
	ctx, tr, s, r := setup(t, sequence.WithSubdivision(units.Expr("4n")))
	require.NoError(t, s.Start(units.Seconds(0)))
	require.NoError(t, tr.Start(units.Seconds(0)))
	ctx.AdvanceTo(block, 2)
	assert.Equal(t, []int{1, 2, 3, 4}, r.values())

	require.NoError(t, s.Set(30, 1, 1))
	require.NoError(t, s.Set(5, 2))
	require.NoError(t, s.Mute(0))
	v, ok := s.Value(1, 1)
	assert.True(t, ok)
	assert.Equal(t, 30, v)
	_, ok = s.Value(0)
	assert.False(t, ok)

	ctx.AdvanceTo(block, 4)
	assert.Equal(t, []int{1, 2, 3, 4, 2, 30, 5, 4}, r.values())
}

func TestStop(t *testing.T) {
	ctx, tr, s, r := setup(t)
	require.NoError(t, s.Start(units.Seconds(0)))
	require.NoError(t, tr.Start(units.Seconds(0)))
	ctx.AdvanceTo(block, 0.25)
	assert.Equal(t, []int{1}, r.values())

	s.Stop()
	assert.False(t, s.Started())
	ctx.AdvanceTo(block, 2)
	assert.Equal(t, []int{1}, r.values())
	s.Dispose()
}

func TestErrors(t *testing.T) {
	ctx := &mock.Context{}
	tr, err := transport.New(ctx)
	require.NoError(t, err)
	r := &recorder{}

	_, err = sequence.New[int](tr, nil, pattern())
	assert.ErrorIs(t, err, cadence.ErrInvalidArgument)
	_, err = sequence.New(tr, r.callback, pattern(), sequence.WithSubdivision(units.Ticks(0)))
	assert.ErrorIs(t, err, cadence.ErrInvalidArgument)

	s, err := sequence.New(tr, r.callback, pattern())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Set(1), cadence.ErrInvalidArgument)
	assert.ErrorIs(t, s.Set(1, 1), cadence.ErrInvalidArgument)
	assert.ErrorIs(t, s.Set(1, 4), cadence.ErrInvalidArgument)
	assert.ErrorIs(t, s.Mute(1, 2), cadence.ErrInvalidArgument)
	assert.ErrorIs(t, s.Start(units.Forever), cadence.ErrInvalidArgument)
}
