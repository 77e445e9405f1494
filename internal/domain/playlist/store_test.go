package playlist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cueplay/cueplay/internal/domain/track"
)

func newTrack(name string) *track.Track {
	return track.New(name, 1024, "audio/mpeg", "blob:"+name, nil)
}

func TestStore_Add_PreservesOrder(t *testing.T) {
	s := NewStore()

	names := []string{"a.mp3", "b.mp3", "c.mp3"}
	for _, n := range names {
		require.NoError(t, s.Add(newTrack(n)))
	}

	assert.Equal(t, 3, s.Len())
	for i, n := range names {
		tr, err := s.At(i)
		require.NoError(t, err)
		assert.Equal(t, n, tr.Name)
	}
}

func TestStore_Add_DuplicateID(t *testing.T) {
	s := NewStore()
	tr := newTrack("a.mp3")

	require.NoError(t, s.Add(tr))
	err := s.Add(tr)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Remove(t *testing.T) {
	tests := []struct {
		name        string
		removeAt    int // index of track to remove
		wantOrder   []int
	}{
		{name: "remove head", removeAt: 0, wantOrder: []int{1, 2}},
		{name: "remove middle", removeAt: 1, wantOrder: []int{0, 2}},
		{name: "remove tail", removeAt: 2, wantOrder: []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			tracks := make([]*track.Track, 3)
			for i := range tracks {
				tracks[i] = newTrack(fmt.Sprintf("%d.mp3", i))
				require.NoError(t, s.Add(tracks[i]))
			}

			assert.True(t, s.Remove(tracks[tt.removeAt].ID))
			assert.Equal(t, 2, s.Len())
			assert.True(t, tracks[tt.removeAt].Released(), "removed track URI must be released")

			for pos, orig := range tt.wantOrder {
				tr, err := s.At(pos)
				require.NoError(t, err)
				assert.Equal(t, tracks[orig].ID, tr.ID)
				assert.Equal(t, pos, s.IndexOf(tr.ID), "index map must track positions after removal")
			}
		})
	}
}

func TestStore_Remove_NotFound(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTrack("a.mp3")))

	assert.False(t, s.Remove("no-such-id"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	tracks := make([]*track.Track, 3)
	for i := range tracks {
		tracks[i] = newTrack(fmt.Sprintf("%d.mp3", i))
		require.NoError(t, s.Add(tracks[i]))
	}

	assert.Equal(t, 3, s.Clear())
	assert.Equal(t, 0, s.Len())
	for _, tr := range tracks {
		assert.True(t, tr.Released())
	}

	assert.Equal(t, 0, s.Clear(), "clearing an empty store returns 0")
}

func TestStore_At_OutOfRange(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTrack("a.mp3")))

	for _, idx := range []int{-1, 1, 100} {
		_, err := s.At(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}
}

func TestStore_IndexOf(t *testing.T) {
	s := NewStore()
	a := newTrack("a.mp3")
	b := newTrack("b.mp3")
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))

	assert.Equal(t, 0, s.IndexOf(a.ID))
	assert.Equal(t, 1, s.IndexOf(b.ID))
	assert.Equal(t, -1, s.IndexOf("absent"))
}

func TestStore_Tracks_ReturnsCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTrack("a.mp3")))

	got := s.Tracks()
	got[0] = nil
	tr, err := s.At(0)
	require.NoError(t, err)
	assert.NotNil(t, tr)
}
