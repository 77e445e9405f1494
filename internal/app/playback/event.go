package playback

// EventType represents a playback event type.
type EventType int

const (
	EventTrackLoaded     EventType = iota // A track was assigned to the source
	EventTrackStarted                     // Playback started
	EventTrackEnded                       // Track finished naturally
	EventStateChanged                     // Transport state changed
	EventPlaylistChanged                  // Playlist contents changed
	EventPlaybackError                    // Load or play attempt failed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackLoaded:
		return "track_loaded"
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventStateChanged:
		return "state_changed"
	case EventPlaylistChanged:
		return "playlist_changed"
	case EventPlaybackError:
		return "playback_error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	TrackID string // Track concerned, empty for some events
	State   State  // Transport state after the event
	Message string // Human-readable detail for EventPlaybackError
}
