// Package media defines the contract between the playback controller and
// the media backend that actually decodes and plays audio.
package media

// EventKind represents a media source lifecycle event type.
type EventKind int

const (
	KindMetadataReady EventKind = iota // Metadata loaded, duration known
	KindTimeUpdate                     // Playback position advanced
	KindBuffering                      // Buffering started or stopped
	KindEnded                          // Track finished naturally
	KindError                          // Source failed to resolve or decode
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case KindMetadataReady:
		return "metadata_ready"
	case KindTimeUpdate:
		return "time_update"
	case KindBuffering:
		return "buffering"
	case KindEnded:
		return "ended"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a normalized media source lifecycle event.
type Event struct {
	Kind      EventKind
	Duration  float64 // Seconds; set for KindMetadataReady
	Seconds   float64 // Current position; set for KindTimeUpdate
	Buffering bool    // Set for KindBuffering
	Message   string  // Human-readable failure; set for KindError
}

// Sink receives events pushed by a source. A source delivers events for
// the most recent Load only; the controller still guards against late
// deliveries with its own generation check.
type Sink func(Event)

// Source wraps one playable media element. The playback controller is its
// exclusive owner; no other component commands it directly.
type Source interface {
	// SetSink registers the event sink. Must be called before Load.
	SetSink(sink Sink)

	// Load assigns a new source URI, tearing down whatever was loaded
	// before. Outstanding timers and play attempts from the previous
	// load are cancelled.
	Load(uri string)

	// Play starts or resumes playback. The attempt is asynchronous: the
	// returned channel yields nil on success or the rejection error, then
	// closes. Callers must treat the resolution as possibly stale.
	Play() <-chan error

	// Pause suspends playback, keeping the source attached.
	Pause()

	// SetCurrentTime moves the playback position, in seconds.
	SetCurrentTime(seconds float64)

	// SetVolume sets the output volume in [0,1].
	SetVolume(v float64)

	// SetMuted toggles output muting.
	SetMuted(muted bool)

	// SetPlaybackRate sets the playback speed multiplier.
	SetPlaybackRate(rate float64)

	// Close detaches the source and stops all event delivery.
	Close()
}
