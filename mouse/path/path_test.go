package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/micromouse/mouse/maze"
)

func pos(x, y uint8) maze.Position {
	return maze.Position{X: x, Y: y}
}

func build(t *testing.T, positions ...maze.Position) *Path {
	t.Helper()
	p := New()
	require.NoError(t, p.AppendAll(positions))
	return p
}

func TestNew_Empty(t *testing.T) {
	p := New()
	_, ok := p.Head()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Optimized())
}

func TestNewFrom(t *testing.T) {
	p := NewFrom(pos(0, 0))
	head, ok := p.Head()
	require.True(t, ok)
	assert.Equal(t, pos(0, 0), head)
	assert.Equal(t, 1, p.Len())
}

func TestAppend(t *testing.T) {
	p := NewFrom(pos(0, 0))
	require.NoError(t, p.Append(pos(1, 0)))

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, pos(0, 0), p.At(0))
	head, _ := p.Head()
	assert.Equal(t, pos(1, 0), head)
}

func TestAppend_Overflow(t *testing.T) {
	p := New()
	for i := 0; i < Capacity; i++ {
		require.NoError(t, p.Append(maze.PositionOf(i)))
	}

	err := p.Append(pos(0, 0))
	assert.ErrorIs(t, err, ErrPathFull)
	assert.Equal(t, Capacity, p.Len())
}

func TestAppendAll_OverflowLeavesPathUnchanged(t *testing.T) {
	p := New()
	for i := 0; i < Capacity-1; i++ {
		require.NoError(t, p.Append(maze.PositionOf(i)))
	}

	err := p.AppendAll([]maze.Position{pos(0, 0), pos(1, 0)})
	assert.ErrorIs(t, err, ErrPathFull)
	assert.Equal(t, Capacity-1, p.Len())
}

func TestContains(t *testing.T) {
	p := build(t, pos(0, 0), pos(1, 0), pos(1, 1))

	assert.True(t, p.Contains(pos(0, 0)))
	assert.True(t, p.Contains(pos(1, 1)))
	assert.False(t, p.Contains(pos(2, 2)))
	assert.False(t, New().Contains(pos(0, 0)))
}

func TestIndexOf(t *testing.T) {
	p := build(t, pos(0, 0), pos(1, 0), pos(0, 0), pos(0, 1))

	assert.Equal(t, 0, p.IndexOf(pos(0, 0)))
	assert.Equal(t, 2, p.LastIndexOf(pos(0, 0), p.Len()))
	assert.Equal(t, 0, p.LastIndexOf(pos(0, 0), 1))
	assert.Equal(t, -1, p.IndexOf(pos(5, 5)))
}

func TestOptimize(t *testing.T) {
	tests := []struct {
		name     string
		input    []maze.Position
		expected []maze.Position
	}{
		{
			name:     "no loops",
			input:    []maze.Position{pos(0, 0), pos(1, 0), pos(2, 0)},
			expected: []maze.Position{pos(0, 0), pos(1, 0), pos(2, 0)},
		},
		{
			name:     "nested loops",
			input:    []maze.Position{pos(0, 0), pos(1, 0), pos(0, 1), pos(1, 0), pos(3, 1), pos(1, 0), pos(2, 0)},
			expected: []maze.Position{pos(0, 0), pos(1, 0), pos(2, 0)},
		},
		{
			name:     "dead end branch",
			input:    []maze.Position{pos(0, 0), pos(1, 0), pos(2, 0), pos(1, 0), pos(1, 1)},
			expected: []maze.Position{pos(0, 0), pos(1, 0), pos(1, 1)},
		},
		{
			name:     "avoid removing root",
			input:    []maze.Position{pos(0, 0), pos(1, 0), pos(1, 1), pos(1, 0), pos(0, 0), pos(0, 1)},
			expected: []maze.Position{pos(0, 0), pos(0, 1)},
		},
		{
			name:     "full loop back to start",
			input:    []maze.Position{pos(0, 0), pos(1, 0), pos(1, 1), pos(0, 1), pos(0, 0)},
			expected: []maze.Position{pos(0, 0)},
		},
		{
			name:     "single",
			input:    []maze.Position{pos(4, 4)},
			expected: []maze.Position{pos(4, 4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(t, tt.input...)
			p.Optimize()

			assert.True(t, p.Optimized())
			assert.Equal(t, tt.expected, p.Segments())
		})
	}
}

func TestOptimize_Empty(t *testing.T) {
	p := New()
	p.Optimize()
	assert.Equal(t, 0, p.Len())
	assert.True(t, p.Optimized())
}

func TestOptimize_Idempotent(t *testing.T) {
	p := build(t, pos(0, 0), pos(1, 0), pos(0, 1), pos(1, 0), pos(3, 1), pos(1, 0), pos(2, 0))
	p.Optimize()
	once := p.Segments()
	p.Optimize()

	assert.Equal(t, once, p.Segments())
}

func TestOptimize_NoRepeatsAndKeepsEnds(t *testing.T) {
	input := []maze.Position{
		pos(0, 0), pos(0, 1), pos(0, 2), pos(1, 2), pos(1, 1), pos(0, 1),
		pos(0, 2), pos(0, 3), pos(1, 3), pos(0, 3), pos(0, 4),
	}
	p := build(t, input...)
	p.Optimize()

	got := p.Segments()
	assert.Equal(t, input[0], got[0])
	assert.Equal(t, input[len(input)-1], got[len(got)-1])

	seen := map[maze.Position]bool{}
	for i, s := range got {
		assert.False(t, seen[s], "position %s repeats", s)
		seen[s] = true
		if i > 0 {
			assert.True(t, got[i-1].Adjacent(s), "gap between %s and %s", got[i-1], s)
		}
	}
}

func TestTimeToComplete_PanicsBeforeOptimize(t *testing.T) {
	p := build(t, pos(0, 0), pos(1, 0))
	assert.Panics(t, func() { p.TimeToComplete() })
}

func TestTimeToComplete(t *testing.T) {
	tests := []struct {
		name     string
		input    []maze.Position
		expected float64
		turns    int
	}{
		{"single cell", []maze.Position{pos(0, 0)}, 0, 0},
		{"two cells", []maze.Position{pos(0, 0), pos(1, 0)}, 0, 0},
		{"straight", []maze.Position{pos(0, 0), pos(1, 0), pos(2, 0), pos(3, 0)}, 2, 0},
		{"one turn", []maze.Position{pos(0, 0), pos(1, 0), pos(1, 1), pos(1, 2)}, 2.5, 1},
		{"staircase", []maze.Position{pos(0, 0), pos(1, 0), pos(1, 1), pos(2, 1), pos(2, 2)}, 4.5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(t, tt.input...)
			p.Optimize()

			assert.InDelta(t, tt.expected, p.TimeToComplete(), 1e-9)
			assert.Equal(t, tt.turns, p.Turns())
		})
	}
}

func TestTimeToComplete_MoreTurnsTakeLonger(t *testing.T) {
	straight := build(t, pos(0, 0), pos(1, 0), pos(2, 0), pos(3, 0), pos(4, 0))
	oneTurn := build(t, pos(0, 0), pos(1, 0), pos(2, 0), pos(2, 1), pos(2, 2))
	zigzag := build(t, pos(0, 0), pos(1, 0), pos(1, 1), pos(2, 1), pos(2, 2))

	straight.Optimize()
	oneTurn.Optimize()
	zigzag.Optimize()

	assert.Less(t, straight.TimeToComplete(), oneTurn.TimeToComplete())
	assert.Less(t, oneTurn.TimeToComplete(), zigzag.TimeToComplete())
}

func TestRestore(t *testing.T) {
	p, err := Restore([]maze.Position{pos(0, 0), pos(1, 0)}, true)
	require.NoError(t, err)
	assert.True(t, p.Optimized())
	assert.Equal(t, 2, p.Len())

	_, err = Restore(make([]maze.Position, Capacity+1), false)
	assert.ErrorIs(t, err, ErrPathFull)
}

func TestString(t *testing.T) {
	p := build(t, pos(0, 0), pos(1, 0))
	assert.Equal(t, "(0,0) -> (1,0)", p.String())
}
