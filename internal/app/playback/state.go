// Package playback provides the playback controller: the state machine that
// owns current-track selection, transport state, and the coordination
// between media source events and navigation.
package playback

// State represents the transport state.
type State int

const (
	StateEmpty   State = iota // No track loaded
	StateLoading              // Source assigned, metadata not yet available
	StatePaused               // Track loaded, not playing
	StatePlaying              // Track is playing
	StateStopped              // Playback stopped, position reset, source retained
	StateEnded                // Track finished naturally (transient)
	StateError                // Current track failed; recoverable only by a fresh load
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
