// Package sim provides a simulated media source. It mimics a media
// element's lifecycle with timers instead of decoding audio, which is
// enough to drive the playback controller from the command harness and
// from tests.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/cueplay/cueplay/internal/app/media"
)

// ErrPlayRejected is the rejection returned when the source is configured
// to refuse play attempts.
var ErrPlayRejected = errors.New("sim: play rejected by configuration")

// Settings configures the simulated source.
type Settings struct {
	LoadDelayMs          int     `yaml:"load_delay_ms" mapstructure:"load_delay_ms" default:"50" validate:"gte=0"`
	DefaultDurationSec   float64 `yaml:"default_duration_sec" mapstructure:"default_duration_sec" default:"180" validate:"gt=0"`
	TimeUpdateIntervalMs int     `yaml:"time_update_interval_ms" mapstructure:"time_update_interval_ms" default:"250" validate:"gt=0"`
	FailLoad             bool    `yaml:"fail_load" mapstructure:"fail_load"`
	RejectPlay           bool    `yaml:"reject_play" mapstructure:"reject_play"`
}

// SettingsFrom decodes backend settings from a config map.
func SettingsFrom(m map[string]any) (Settings, error) {
	var s Settings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &s,
		TagName: "mapstructure",
	})
	if err != nil {
		return s, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(m); err != nil {
		return s, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&s); err != nil {
		return s, errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return s, errors.Wrap(err, "settings validation failed")
	}
	return s, nil
}

// Source simulates one playable media element.
type Source struct {
	mu       sync.Mutex
	settings Settings
	sink     media.Sink

	uri      string
	duration float64
	position float64
	volume   float64
	muted    bool
	rate     float64
	playing  bool

	// loadCancel tears down the timers of the current load; closeCancel
	// tears down the whole source.
	loadCancel context.CancelFunc
	closeCtx   context.Context
	closeStop  context.CancelFunc
}

// New creates a simulated source with the given settings.
func New(settings Settings) *Source {
	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		settings:  settings,
		volume:    1.0,
		rate:      1.0,
		closeCtx:  ctx,
		closeStop: cancel,
	}
}

// SetSink registers the event sink.
func (s *Source) SetSink(sink media.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Load assigns a new URI, cancelling the previous load's timers, and
// schedules metadata resolution (or a load failure) after the configured
// delay.
func (s *Source) Load(uri string) {
	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
	}
	ctx, cancel := context.WithCancel(s.closeCtx)
	s.loadCancel = cancel
	s.uri = uri
	s.position = 0
	s.duration = s.settings.DefaultDurationSec
	s.playing = false
	fail := s.settings.FailLoad
	delay := time.Duration(s.settings.LoadDelayMs) * time.Millisecond
	duration := s.duration
	s.mu.Unlock()

	zlog.Debug().Str("uri", uri).Msg("sim: loading")

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if fail {
			s.emit(ctx, media.Event{Kind: media.KindError, Message: "simulated load failure"})
			return
		}
		s.emit(ctx, media.Event{Kind: media.KindMetadataReady, Duration: duration})
		s.run(ctx)
	}()
}

// run advances the simulated playhead while playing, emitting time
// updates and, at the end of the track, a single Ended event.
func (s *Source) run(ctx context.Context) {
	interval := time.Duration(s.settings.TimeUpdateIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if !s.playing {
			s.mu.Unlock()
			continue
		}
		s.position += interval.Seconds() * s.rate
		ended := s.position >= s.duration
		if ended {
			s.position = s.duration
			s.playing = false
		}
		pos := s.position
		s.mu.Unlock()

		s.emit(ctx, media.Event{Kind: media.KindTimeUpdate, Seconds: pos})
		if ended {
			zlog.Debug().Msg("sim: track ended")
			s.emit(ctx, media.Event{Kind: media.KindEnded})
			return
		}
	}
}

// Play resolves asynchronously: nil on success, the rejection otherwise.
func (s *Source) Play() <-chan error {
	ch := make(chan error, 1)
	go func() {
		s.mu.Lock()
		reject := s.settings.RejectPlay
		if !reject {
			s.playing = true
		}
		s.mu.Unlock()

		if reject {
			ch <- ErrPlayRejected
		} else {
			ch <- nil
		}
		close(ch)
	}()
	return ch
}

// Pause suspends the simulated playhead.
func (s *Source) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// SetCurrentTime moves the playhead, clamped to the known duration.
func (s *Source) SetCurrentTime(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	s.position = seconds
}

// SetVolume stores the output volume.
func (s *Source) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

// SetMuted stores the mute flag.
func (s *Source) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

// SetPlaybackRate stores the rate; the playhead advances faster or
// slower accordingly.
func (s *Source) SetPlaybackRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

// Close stops all timers and event delivery.
func (s *Source) Close() {
	s.mu.Lock()
	if s.loadCancel != nil {
		s.loadCancel()
		s.loadCancel = nil
	}
	s.mu.Unlock()
	s.closeStop()
}

// emit delivers an event through the sink unless the load it belongs to
// has been cancelled. The sink is called without holding the lock.
func (s *Source) emit(ctx context.Context, e media.Event) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink(e)
	}
}

var _ media.Source = (*Source)(nil)
