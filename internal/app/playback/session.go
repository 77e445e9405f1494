package playback

// Snapshot is the read-only view of the playback session, taken for
// rendering. It is a value copy; holding one does not observe later
// transitions.
type Snapshot struct {
	State     State
	TrackID   string  // Empty when no track is loaded
	Index     int     // Position in the playlist, -1 when no selection
	Position  float64 // Seconds
	Duration  float64 // Seconds, 0 while unknown
	Volume    float64 // [0,1]
	Muted     bool
	Rate      float64 // [0.25,4]
	Buffering bool
	Shuffle   bool
	LastError error // Set while in StateError
}
