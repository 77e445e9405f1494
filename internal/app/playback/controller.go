package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/cueplay/cueplay/internal/app/media"
	"github.com/cueplay/cueplay/internal/app/nav"
	"github.com/cueplay/cueplay/internal/domain/playlist"
	"github.com/cueplay/cueplay/internal/domain/track"
)

// Errors
var (
	ErrNoTrack          = errors.New("no track loaded")
	ErrNotReady         = errors.New("metadata not yet available")
	ErrTrackNotFound    = errors.New("track not in playlist")
	ErrPlaylistEmpty    = errors.New("playlist is empty")
	ErrLoad             = errors.New("media source failed")
	ErrPlaybackRejected = errors.New("play attempt rejected")
)

// Playback rate bounds.
const (
	MinRate = 0.25
	MaxRate = 4.0
)

// Config holds controller configuration.
type Config struct {
	InitialVolume float64 // [0,1]; values outside are clamped
	InitialRate   float64 // [0.25,4]; zero means 1.0
	Shuffle       bool    // Start with shuffle on
}

// Controller is the playback state machine. It exclusively owns the media
// source and holds only the current track id; the index is re-derived from
// the store on demand so removal bookkeeping cannot drift.
//
// All transitions run under one mutex, mirroring the serialized event loop
// the transport model assumes. Asynchronous callbacks (media events, play
// resolutions) carry the generation or sequence they were issued under and
// are discarded when a newer command has superseded them.
type Controller struct {
	mu     sync.Mutex
	store  *playlist.Store
	source media.Source
	order  *nav.Order

	state     State
	currentID string
	// resumeIndex keeps navigation anchored after the current track is
	// removed: it points just before the removed track's old slot, so
	// Next lands on the track that followed it. -1 when unset.
	resumeIndex int
	position  float64
	volume    float64
	muted     bool
	rate      float64
	buffering bool
	lastError error

	// generation invalidates media event sinks; bumped on every load
	// and teardown. seq invalidates pending play resolutions; bumped on
	// every transport command.
	generation uint64
	seq        uint64
	autoPlay   bool // Play as soon as the pending load's metadata resolves

	eventCh chan Event
	closed  bool
}

// NewController creates a controller over the given store and media source.
func NewController(store *playlist.Store, source media.Source, cfg Config) *Controller {
	c := &Controller{
		store:       store,
		source:      source,
		order:       nav.NewOrder(),
		state:       StateEmpty,
		resumeIndex: -1,
		volume:      clamp(cfg.InitialVolume, 0, 1),
		rate:        1.0,
		eventCh:     make(chan Event, 16),
	}
	if cfg.InitialRate != 0 {
		c.rate = clamp(cfg.InitialRate, MinRate, MaxRate)
	}
	c.order.Resize(store.Len())
	if cfg.Shuffle {
		c.order.SetShuffle(true)
	}
	source.SetVolume(c.volume)
	source.SetPlaybackRate(c.rate)
	return c
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// AddTrack appends a track to the playlist.
func (c *Controller) AddTrack(t *track.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Add(t); err != nil {
		return err
	}
	c.order.Resize(c.store.Len())
	c.sendEventLocked(Event{Type: EventPlaylistChanged, TrackID: t.ID, State: c.state})
	return nil
}

// RemoveTrack removes a track by id, releasing its URI. Returns false if
// the id is not in the playlist. Removing the currently loaded track stops
// playback and falls back to StateEmpty; no neighbor is auto-loaded.
func (c *Controller) RemoveTrack(trackID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasCurrent := trackID != "" && trackID == c.currentID
	idx := c.store.IndexOf(trackID)
	if !c.store.Remove(trackID) {
		return false
	}
	c.order.Resize(c.store.Len())

	if wasCurrent {
		zlog.Debug().Str("track", trackID).Msg("playback: current track removed, tearing down")
		c.teardownLocked()
		c.resumeIndex = idx - 1
	} else if c.currentID == "" && idx <= c.resumeIndex {
		// Holder of an index must re-validate after removal.
		c.resumeIndex--
	}
	c.sendEventLocked(Event{Type: EventPlaylistChanged, TrackID: trackID, State: c.state})
	return true
}

// ClearPlaylist removes every track, releasing all URIs, and tears down
// playback. Returns the number of tracks removed.
func (c *Controller) ClearPlaylist() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.store.Clear()
	c.order.Resize(0)
	if c.currentID != "" {
		c.teardownLocked()
	}
	if n > 0 {
		c.sendEventLocked(Event{Type: EventPlaylistChanged, State: c.state})
	}
	return n
}

// LoadTrack loads the track with the given id. Valid from any state; the
// previous source is always torn down first, and the error field cleared.
func (c *Controller) LoadTrack(trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(trackID, false)
}

func (c *Controller) loadLocked(trackID string, autoPlay bool) error {
	t, ok := c.store.Get(trackID)
	if !ok {
		return errors.Wrapf(ErrTrackNotFound, "id %q", trackID)
	}

	// Supersede any outstanding load or play attempt. Their callbacks,
	// if they still arrive, are no-ops against the new generation.
	c.generation++
	c.seq++
	gen := c.generation

	c.source.Pause()
	c.source.SetSink(func(e media.Event) {
		c.handleMediaEvent(gen, e)
	})

	c.currentID = t.ID
	c.resumeIndex = -1
	c.position = 0
	c.buffering = false
	c.lastError = nil
	c.autoPlay = autoPlay
	c.state = StateLoading

	zlog.Debug().Str("track", t.ID).Str("name", t.Name).Bool("auto_play", autoPlay).
		Msg("playback: loading track")

	c.source.Load(t.URI)
	c.sendEventLocked(Event{Type: EventTrackLoaded, TrackID: t.ID, State: c.state})
	return nil
}

// Play starts or resumes playback. The underlying attempt is asynchronous;
// its resolution is discarded if a conflicting command is issued meanwhile.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		return nil
	case StateEmpty:
		return ErrNoTrack
	case StateLoading:
		return ErrNotReady
	case StateError:
		// Recoverable only by a fresh load.
		return c.lastError
	case StateStopped, StateEnded:
		c.position = 0
		c.source.SetCurrentTime(0)
	}

	c.startPlayLocked()
	return nil
}

// startPlayLocked issues an asynchronous play attempt against the source.
// Must be called with lock held.
func (c *Controller) startPlayLocked() {
	c.seq++
	seq := c.seq
	resultCh := c.source.Play()
	go func() {
		err := <-resultCh
		c.completePlay(seq, err)
	}()
}

// completePlay applies the outcome of a play attempt, unless a newer
// command has been issued since ("stale-resolution" guard).
func (c *Controller) completePlay(seq uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		zlog.Debug().Msg("playback: discarding stale play resolution")
		return
	}

	if err != nil {
		c.failLocked(errors.Wrapf(ErrPlaybackRejected, "%v", err))
		return
	}

	c.state = StatePlaying
	c.sendEventLocked(Event{Type: EventTrackStarted, TrackID: c.currentID, State: c.state})
	c.sendEventLocked(Event{Type: EventStateChanged, TrackID: c.currentID, State: c.state})
}

// Pause suspends playback, keeping the source attached. A pending play
// attempt is invalidated regardless of the current state.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentID == "" {
		return ErrNoTrack
	}

	c.seq++ // cancels any in-flight play attempt
	c.autoPlay = false
	c.source.Pause()
	if c.state == StatePlaying {
		c.state = StatePaused
		c.sendEventLocked(Event{Type: EventStateChanged, TrackID: c.currentID, State: c.state})
	}
	return nil
}

// Stop halts playback and resets the position to 0. The source stays
// attached so a later Play resumes from the start.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentID == "" {
		return ErrNoTrack
	}
	if c.state == StateError {
		return c.lastError
	}

	c.seq++
	c.autoPlay = false
	c.source.Pause()
	c.source.SetCurrentTime(0)
	c.position = 0
	if c.state != StateStopped {
		c.state = StateStopped
		c.sendEventLocked(Event{Type: EventStateChanged, TrackID: c.currentID, State: c.state})
	}
	return nil
}

// Next loads and plays the next track per the navigation policy.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigateLocked(nav.NextIndex)
}

// Previous loads and plays the previous track per the navigation policy.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigateLocked(nav.PreviousIndex)
}

func (c *Controller) navigateLocked(step func(current, length int, ord *nav.Order) int) error {
	length := c.store.Len()
	if length == 0 {
		return ErrPlaylistEmpty
	}
	current := c.store.IndexOf(c.currentID)
	if current < 0 && c.resumeIndex >= 0 && c.resumeIndex < length {
		current = c.resumeIndex
	}
	idx := step(current, length, c.order)
	t, err := c.store.At(idx)
	if err != nil {
		return err
	}
	return c.loadLocked(t.ID, true)
}

// PlayTrack loads and plays a specific track (explicit selection).
func (c *Controller) PlayTrack(trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(trackID, true)
}

// Seek moves the position, clamped to [0,duration]. A no-op while no track
// is loaded or the duration is unknown. Never fails.
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.store.Get(c.currentID)
	if !ok || !t.HasDuration() {
		return
	}
	c.position = clamp(seconds, 0, t.Duration())
	c.source.SetCurrentTime(c.position)
}

// SetVolume sets the volume, clamped to [0,1]. Setting a positive volume
// while muted clears the mute flag.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clamp(v, 0, 1)
	c.source.SetVolume(c.volume)
	if c.volume > 0 && c.muted {
		c.muted = false
		c.source.SetMuted(false)
	}
}

// ToggleMute flips the mute flag. Mute is independent of the volume level.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.muted = !c.muted
	c.source.SetMuted(c.muted)
	return c.muted
}

// SetRate sets the playback rate, clamped to [0.25,4].
func (c *Controller) SetRate(r float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rate = clamp(r, MinRate, MaxRate)
	c.source.SetPlaybackRate(c.rate)
}

// SetShuffle toggles shuffle navigation. Turning it on regenerates the
// shuffle order over the current playlist length.
func (c *Controller) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Resize(c.store.Len())
	c.order.SetShuffle(on)
}

// HasNeighbors reports whether next/previous are meaningful moves.
func (c *Controller) HasNeighbors() bool {
	return nav.HasNeighbors(c.store.Len())
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var duration float64
	if t, ok := c.store.Get(c.currentID); ok {
		duration = t.Duration()
	}
	return Snapshot{
		State:     c.state,
		TrackID:   c.currentID,
		Index:     c.store.IndexOf(c.currentID),
		Position:  c.position,
		Duration:  duration,
		Volume:    c.volume,
		Muted:     c.muted,
		Rate:      c.rate,
		Buffering: c.buffering,
		Shuffle:   c.order.Shuffled(),
		LastError: c.lastError,
	}
}

// Close tears down playback and releases the media source. The event
// channel is closed; pending callbacks become no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.currentID != "" {
		c.teardownLocked()
	}
	c.source.Close()
	c.closed = true
	close(c.eventCh)
}

// handleMediaEvent routes a media source event issued under the given
// generation. Events from superseded loads are discarded.
func (c *Controller) handleMediaEvent(gen uint64, e media.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		zlog.Debug().Str("kind", e.Kind.String()).Msg("playback: discarding event from superseded load")
		return
	}

	switch e.Kind {
	case media.KindMetadataReady:
		c.onMetadataLocked(e.Duration)
	case media.KindTimeUpdate:
		c.onTimeUpdateLocked(e.Seconds)
	case media.KindBuffering:
		c.buffering = e.Buffering
	case media.KindEnded:
		c.onEndedLocked()
	case media.KindError:
		c.failLocked(errors.Wrapf(ErrLoad, "%s", e.Message))
	}
}

func (c *Controller) onMetadataLocked(duration float64) {
	// Record the duration even when a Pause or Stop arrived mid-load;
	// the load itself is still valid, so Seek and the snapshot must
	// see it once the source settles.
	if t, ok := c.store.Get(c.currentID); ok {
		t.ResolveDuration(duration)
	}
	if c.state != StateLoading {
		return
	}
	c.position = 0
	c.state = StatePaused
	c.sendEventLocked(Event{Type: EventStateChanged, TrackID: c.currentID, State: c.state})

	if c.autoPlay {
		c.autoPlay = false
		c.startPlayLocked()
	}
}

func (c *Controller) onTimeUpdateLocked(seconds float64) {
	if c.currentID == "" {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if t, ok := c.store.Get(c.currentID); ok && t.HasDuration() {
		seconds = clamp(seconds, 0, t.Duration())
	}
	c.position = seconds
}

// onEndedLocked applies the auto-advance rule on natural completion.
func (c *Controller) onEndedLocked() {
	if c.state != StatePlaying {
		return
	}

	endedID := c.currentID
	c.state = StateEnded
	c.sendEventLocked(Event{Type: EventTrackEnded, TrackID: endedID, State: c.state})

	length := c.store.Len()
	switch {
	case length > 1:
		idx := nav.NextIndex(c.store.IndexOf(endedID), length, c.order)
		t, err := c.store.At(idx)
		if err != nil {
			c.teardownLocked()
			return
		}
		zlog.Debug().Str("from", endedID).Str("to", t.ID).Msg("playback: auto-advancing")
		_ = c.loadLocked(t.ID, true)
	case length == 1:
		// Single track: rest at the start, no auto-replay.
		c.seq++
		c.position = 0
		c.source.SetCurrentTime(0)
		c.state = StatePaused
		c.sendEventLocked(Event{Type: EventStateChanged, TrackID: c.currentID, State: c.state})
	default:
		c.teardownLocked()
	}
}

// failLocked records the error and transitions to StateError. The rest of
// the session (playlist, volume, other tracks) stays untouched.
func (c *Controller) failLocked(err error) {
	c.seq++
	c.source.Pause()
	c.lastError = err
	c.state = StateError
	zlog.Warn().Err(err).Str("track", c.currentID).Msg("playback: entering error state")
	c.sendEventLocked(Event{Type: EventPlaybackError, TrackID: c.currentID, State: c.state, Message: err.Error()})
}

// teardownLocked detaches the current track and returns to StateEmpty.
// Bumping the generation turns any late callback from the old source into
// a no-op. Must be called with lock held.
func (c *Controller) teardownLocked() {
	c.generation++
	c.seq++
	c.source.Pause()
	c.currentID = ""
	c.resumeIndex = -1
	c.position = 0
	c.buffering = false
	c.autoPlay = false
	c.lastError = nil
	c.state = StateEmpty
	c.sendEventLocked(Event{Type: EventStateChanged, State: c.state})
}

// sendEventLocked sends an event without blocking. Must be called with
// lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
