package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIndex_Linear(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		length   int
		expected int
	}{
		{name: "empty playlist", current: -1, length: 0, expected: -1},
		{name: "no selection", current: -1, length: 3, expected: 0},
		{name: "middle", current: 1, length: 3, expected: 2},
		{name: "wraps to head", current: 2, length: 3, expected: 0},
		{name: "single track wraps onto itself", current: 0, length: 1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextIndex(tt.current, tt.length, nil))
		})
	}
}

func TestPreviousIndex_Linear(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		length   int
		expected int
	}{
		{name: "empty playlist", current: -1, length: 0, expected: -1},
		{name: "head wraps to tail", current: 0, length: 3, expected: 2},
		{name: "middle", current: 2, length: 3, expected: 1},
		{name: "single track wraps onto itself", current: 0, length: 1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PreviousIndex(tt.current, tt.length, nil))
		})
	}
}

// Round-trip: next then previous from any start returns the start.
func TestLinear_RoundTrip(t *testing.T) {
	for length := 1; length <= 8; length++ {
		for start := 0; start < length; start++ {
			next := NextIndex(start, length, nil)
			back := PreviousIndex(next, length, nil)
			assert.Equal(t, start, back, "length=%d start=%d", length, start)
		}
	}
}

// Applying next exactly length times visits every index once and
// returns to the start.
func TestLinear_CycleCoversAll(t *testing.T) {
	for length := 1; length <= 8; length++ {
		visited := make(map[int]bool)
		current := 0
		for i := 0; i < length; i++ {
			visited[current] = true
			current = NextIndex(current, length, nil)
		}
		assert.Equal(t, 0, current, "length=%d", length)
		assert.Len(t, visited, length, "length=%d", length)
	}
}

func TestOrder_PermutationIsBijection(t *testing.T) {
	for length := 1; length <= 32; length++ {
		ord := NewOrder()
		ord.Resize(length)
		ord.SetShuffle(true)

		perm := ord.Permutation()
		require.Len(t, perm, length)

		seen := make(map[int]bool)
		for _, v := range perm {
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, length)
			assert.False(t, seen[v], "index %d appears twice", v)
			seen[v] = true
		}
	}
}

func TestOrder_ShuffleCycleCoversAll(t *testing.T) {
	const length = 16
	ord := NewOrder()
	ord.Resize(length)
	ord.SetShuffle(true)

	current := ord.Permutation()[0]
	visited := make(map[int]bool)
	for i := 0; i < length; i++ {
		visited[current] = true
		current = NextIndex(current, length, ord)
	}
	assert.Len(t, visited, length, "shuffle walk must visit every index")
}

func TestOrder_ShuffleRoundTrip(t *testing.T) {
	const length = 8
	ord := NewOrder()
	ord.Resize(length)
	ord.SetShuffle(true)

	for start := 0; start < length; start++ {
		next := NextIndex(start, length, ord)
		back := PreviousIndex(next, length, ord)
		assert.Equal(t, start, back, "start=%d", start)
	}
}

// Resizing after a length change never yields stale indices.
func TestOrder_ResizeDropsStaleIndices(t *testing.T) {
	ord := NewOrder()
	ord.Resize(10)
	ord.SetShuffle(true)

	ord.Resize(4)
	for _, v := range ord.Permutation() {
		assert.Less(t, v, 4)
	}

	// Stepping with a stale length regenerates on the fly too.
	ord2 := NewOrder()
	ord2.Resize(10)
	ord2.SetShuffle(true)
	got := NextIndex(2, 4, ord2)
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, 4)
}

func TestOrder_ResizeSameLengthKeepsPermutation(t *testing.T) {
	ord := NewOrder()
	ord.Resize(8)
	ord.SetShuffle(true)

	before := ord.Permutation()
	ord.Resize(8)
	assert.Equal(t, before, ord.Permutation())
}

func TestHasNeighbors(t *testing.T) {
	assert.False(t, HasNeighbors(0))
	assert.False(t, HasNeighbors(1))
	assert.True(t, HasNeighbors(2))
}
