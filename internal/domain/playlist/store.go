// Package playlist provides the ordered, mutable track collection for a session.
package playlist

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/cueplay/cueplay/internal/domain/track"
)

// Errors
var (
	ErrDuplicateID     = errors.New("track id already in playlist")
	ErrIndexOutOfRange = errors.New("playlist index out of range")
)

// Store holds the authoritative ordered collection of tracks.
// All mutations are synchronous and atomic from the caller's perspective.
type Store struct {
	mu     sync.RWMutex
	tracks []*track.Track
	byID   map[string]int // id -> position, kept in sync with tracks
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tracks: make([]*track.Track, 0),
		byID:   make(map[string]int),
	}
}

// Add appends a track to the end of the playlist. Existing entries are
// never reordered. Returns ErrDuplicateID if the id is already present.
func (s *Store) Add(t *track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[t.ID]; ok {
		return errors.Wrapf(ErrDuplicateID, "id %q", t.ID)
	}
	s.byID[t.ID] = len(s.tracks)
	s.tracks = append(s.tracks, t)
	return nil
}

// Remove removes the track with the given id and releases its URI.
// Returns false if the id is not present.
func (s *Store) Remove(trackID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[trackID]
	if !ok {
		return false
	}

	removed := s.tracks[i]
	s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
	delete(s.byID, trackID)
	for j := i; j < len(s.tracks); j++ {
		s.byID[s.tracks[j].ID] = j
	}

	removed.ReleaseURI()
	return true
}

// Clear empties the playlist, releasing every URI.
// Returns the previous length.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tracks)
	for _, t := range s.tracks {
		t.ReleaseURI()
	}
	s.tracks = make([]*track.Track, 0)
	s.byID = make(map[string]int)
	return n
}

// IndexOf returns the position of the track with the given id, -1 if absent.
func (s *Store) IndexOf(trackID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.byID[trackID]; ok {
		return i
	}
	return -1
}

// At returns the track at the given position.
func (s *Store) At(index int) (*track.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.tracks) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", index, len(s.tracks))
	}
	return s.tracks[index], nil
}

// Get returns the track with the given id.
func (s *Store) Get(trackID string) (*track.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.byID[trackID]; ok {
		return s.tracks[i], true
	}
	return nil, false
}

// Len returns the number of tracks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Tracks returns a copy of the ordered track list.
func (s *Store) Tracks() []*track.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*track.Track, len(s.tracks))
	copy(result, s.tracks)
	return result
}
