// Package nav computes next/previous track positions for the playback controller.
//
// The index math is pure: it depends only on the current position, the
// playlist length and the optional shuffle order passed in. State lives in
// Order alone, which holds the shuffled permutation while shuffle is on.
package nav

import "math/rand"

// NextIndex returns the position after current. Returns -1 when the
// playlist is empty. In linear order the last position wraps to 0.
// With shuffle on, the walk follows ord's permutation, also wrapping.
func NextIndex(current, length int, ord *Order) int {
	if length == 0 {
		return -1
	}
	if ord != nil && ord.Shuffled() {
		return ord.step(current, length, 1)
	}
	if current < 0 {
		return 0
	}
	return (current + 1) % length
}

// PreviousIndex returns the position before current, symmetric to NextIndex.
func PreviousIndex(current, length int, ord *Order) int {
	if length == 0 {
		return -1
	}
	if ord != nil && ord.Shuffled() {
		return ord.step(current, length, -1)
	}
	if current <= 0 {
		return length - 1
	}
	return current - 1
}

// HasNeighbors reports whether next/previous are meaningful moves.
// A single-track playlist wraps onto itself, so the affordance is
// defined by length alone, decoupled from the wrap-around math.
func HasNeighbors(length int) bool {
	return length > 1
}

// Order holds the shuffle state: a uniform random permutation of
// [0,length), regenerated whenever the playlist length changes or
// shuffle is toggled on.
type Order struct {
	shuffle bool
	perm    []int
}

// NewOrder creates an order with shuffle off.
func NewOrder() *Order {
	return &Order{}
}

// SetShuffle toggles shuffle. Turning it on regenerates the permutation.
func (o *Order) SetShuffle(on bool) {
	if on && !o.shuffle {
		o.regenerate(len(o.perm))
	}
	o.shuffle = on
}

// Shuffled reports whether shuffle is on.
func (o *Order) Shuffled() bool {
	return o.shuffle
}

// Resize adjusts the permutation to a new playlist length.
// A no-op when the length is unchanged.
func (o *Order) Resize(length int) {
	if length == len(o.perm) {
		return
	}
	o.regenerate(length)
}

// Permutation returns a copy of the current permutation.
func (o *Order) Permutation() []int {
	p := make([]int, len(o.perm))
	copy(p, o.perm)
	return p
}

// regenerate builds a fresh Fisher-Yates permutation of [0,length).
func (o *Order) regenerate(length int) {
	o.perm = make([]int, length)
	for i := range o.perm {
		o.perm[i] = i
	}
	for i := length - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		o.perm[i], o.perm[j] = o.perm[j], o.perm[i]
	}
}

// step walks the permutation from current by delta, wrapping.
func (o *Order) step(current, length, delta int) int {
	if length != len(o.perm) {
		o.regenerate(length)
	}
	pos := -1
	for i, v := range o.perm {
		if v == current {
			pos = i
			break
		}
	}
	if pos < 0 {
		// Current position unknown to the permutation (no selection yet).
		if delta > 0 {
			return o.perm[0]
		}
		return o.perm[length-1]
	}
	return o.perm[((pos+delta)%length+length)%length]
}
