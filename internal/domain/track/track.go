// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReleaseFunc revokes a track's playable URI. It is called at most once
// per track, when the track leaves the session.
type ReleaseFunc func(uri string)

// Track represents a single playable audio item.
// All fields except the duration are fixed at intake time.
type Track struct {
	ID       string // Session-unique id, generated at intake
	Name     string // Display name
	Size     int64  // Size in bytes
	MIMEType string // Content type reported at intake
	URI      string // Playable URI, session-scoped and revocable

	mu       sync.Mutex
	duration float64 // Seconds; 0 until metadata resolves
	release  ReleaseFunc
	released bool
}

// New creates a track with a collision-resistant id derived from the
// source name, size, intake timestamp and a random component.
func New(name string, size int64, mimeType, uri string, release ReleaseFunc) *Track {
	return &Track{
		ID:       newID(name, size),
		Name:     name,
		Size:     size,
		MIMEType: mimeType,
		URI:      uri,
		release:  release,
	}
}

func newID(name string, size int64) string {
	return fmt.Sprintf("%s-%d-%d-%s", name, size, time.Now().UnixNano(), uuid.NewString()[:8])
}

// ResolveDuration records the duration once metadata is available.
// The duration transitions from unknown to known exactly once; later
// calls and non-positive values are ignored.
func (t *Track) ResolveDuration(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.duration > 0 || seconds <= 0 {
		return
	}
	t.duration = seconds
}

// Duration returns the track duration in seconds, 0 if not yet known.
func (t *Track) Duration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// HasDuration reports whether metadata has resolved the duration.
func (t *Track) HasDuration() bool {
	return t.Duration() > 0
}

// ReleaseURI revokes the playable URI. Releasing twice is a no-op.
func (t *Track) ReleaseURI() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return
	}
	t.released = true
	if t.release != nil {
		t.release(t.URI)
	}
}

// Released reports whether the URI has been revoked.
func (t *Track) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}
