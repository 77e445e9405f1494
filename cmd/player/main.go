// Package main provides the player entry point.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/cueplay/cueplay/internal/app/filter"
	"github.com/cueplay/cueplay/internal/app/intake"
	"github.com/cueplay/cueplay/internal/app/notify"
	"github.com/cueplay/cueplay/internal/app/playback"
	"github.com/cueplay/cueplay/internal/domain/playlist"
	"github.com/cueplay/cueplay/internal/infra/config"
	"github.com/cueplay/cueplay/internal/infra/logger"
	"github.com/cueplay/cueplay/internal/infra/media/sim"
)

var (
	app        = kingpin.New("cueplay", "cueplay audio playback controller")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available intake filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the interactive player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the main player loop. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	chain, err := buildFilterChain(cfg)
	if err != nil {
		return fmt.Errorf("invalid filter config: %w", err)
	}

	if cfg.Backend.Type != "sim" {
		return fmt.Errorf("unknown backend type: %s", cfg.Backend.Type)
	}
	settings, err := sim.SettingsFrom(cfg.Backend.Settings)
	if err != nil {
		return fmt.Errorf("invalid backend settings: %w", err)
	}
	source := sim.New(settings)

	store := playlist.NewStore()
	controller := playback.NewController(store, source, playback.Config{
		InitialVolume: cfg.Player.InitialVolume,
		InitialRate:   cfg.Player.InitialRate,
		Shuffle:       cfg.Player.Shuffle,
	})
	defer controller.Close()

	svc := intake.NewService(chain, func(uri string) {
		zlog.Debug().Str("uri", uri).Msg("released track URI")
	})

	dispatcher := notify.NewDispatcher()
	dispatcher.Subscribe(notify.ListenerFunc(func(n notify.Notification) error {
		zlog.Info().
			Str("event", n.Event.Type.String()).
			Str("track_id", n.Event.TrackID).
			Str("state", n.Event.State.String()).
			Msg("playback event")
		return nil
	}))
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(controller.Events())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("cueplay ready. Type 'help' for commands.")
	for {
		select {
		case <-sigCh:
			zlog.Info().Msg("Received shutdown signal...")
			controller.Close()
			<-dispatchDone
			return nil
		case line, ok := <-lines:
			if !ok {
				controller.Close()
				<-dispatchDone
				return nil
			}
			if quit := handleCommand(controller, store, svc, line); quit {
				controller.Close()
				<-dispatchDone
				return nil
			}
		}
	}
}

// handleCommand executes one line of input. Returns true on quit.
func handleCommand(c *playback.Controller, store *playlist.Store, svc *intake.Service, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "add":
		if len(args) == 0 {
			fmt.Println("usage: add <file> [file...]")
			break
		}
		for _, path := range args {
			t, addErr := svc.FromFile(path)
			if addErr != nil {
				fmt.Printf("rejected: %v\n", addErr)
				continue
			}
			if addErr = c.AddTrack(t); addErr != nil {
				fmt.Printf("rejected: %v\n", addErr)
				continue
			}
			fmt.Printf("added %s (%s)\n", t.Name, t.ID)
		}
	case "ls":
		for i, t := range store.Tracks() {
			marker := " "
			if t.ID == c.Snapshot().TrackID {
				marker = "*"
			}
			fmt.Printf("%s %3d  %s  (%s, %d bytes)\n", marker, i, t.Name, t.MIMEType, t.Size)
		}
	case "rm":
		err = withIndexArg(args, func(i int) error {
			t, atErr := store.At(i)
			if atErr != nil {
				return atErr
			}
			if !c.RemoveTrack(t.ID) {
				return fmt.Errorf("track not found: %s", t.ID)
			}
			return nil
		})
	case "clear":
		c.ClearPlaylist()
	case "play":
		if len(args) > 0 {
			err = withIndexArg(args, func(i int) error {
				t, atErr := store.At(i)
				if atErr != nil {
					return atErr
				}
				return c.PlayTrack(t.ID)
			})
		} else {
			err = c.Play()
		}
	case "pause":
		err = c.Pause()
	case "stop":
		err = c.Stop()
	case "next":
		err = c.Next()
	case "prev":
		err = c.Previous()
	case "seek":
		err = withFloatArg(args, func(v float64) error {
			c.Seek(v)
			return nil
		})
	case "vol":
		err = withFloatArg(args, func(v float64) error {
			c.SetVolume(v)
			return nil
		})
	case "mute":
		c.ToggleMute()
	case "rate":
		err = withFloatArg(args, func(v float64) error {
			c.SetRate(v)
			return nil
		})
	case "shuffle":
		snap := c.Snapshot()
		c.SetShuffle(!snap.Shuffle)
		fmt.Printf("shuffle: %v\n", !snap.Shuffle)
	case "status":
		printStatus(c.Snapshot())
	case "help":
		printHelp()
	case "quit", "exit":
		return true
	default:
		fmt.Printf("unknown command: %s (try 'help')\n", cmd)
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
	return false
}

func withIndexArg(args []string, fn func(int) error) error {
	if len(args) == 0 {
		return fmt.Errorf("index argument required")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index: %s", args[0])
	}
	return fn(i)
}

func withFloatArg(args []string, fn func(float64) error) error {
	if len(args) == 0 {
		return fmt.Errorf("numeric argument required")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid number: %s", args[0])
	}
	return fn(v)
}

func printStatus(s playback.Snapshot) {
	fmt.Printf("state:    %s\n", s.State)
	if s.TrackID != "" {
		fmt.Printf("track:    %s (index %d)\n", s.TrackID, s.Index)
		fmt.Printf("position: %.1fs / %.1fs\n", s.Position, s.Duration)
	}
	fmt.Printf("volume:   %.2f (muted: %v)\n", s.Volume, s.Muted)
	fmt.Printf("rate:     %.2fx\n", s.Rate)
	fmt.Printf("shuffle:  %v\n", s.Shuffle)
	if s.LastError != nil {
		fmt.Printf("error:    %v\n", s.LastError)
	}
}

func printHelp() {
	fmt.Println(`commands:
  add <file>...   add audio files to the playlist
  ls              list playlist tracks
  rm <index>      remove a track
  clear           clear the playlist
  play [index]    start or resume playback
  pause           pause playback
  stop            stop and rewind
  next / prev     navigate the playlist
  seek <sec>      seek within the current track
  vol <0..1>      set volume
  mute            toggle mute
  rate <0.25..4>  set playback rate
  shuffle         toggle shuffle
  status          show player state
  quit            exit`)
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, factory := range filter.GetRegistered() {
		f := factory()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-25s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// buildFilterChain builds the intake chain from enabled filters.
func buildFilterChain(cfg *config.Config) (*filter.Chain, error) {
	registry := filter.GetRegistered()
	chain := filter.NewChain()

	for filterName, filterCfg := range cfg.Filters {
		if !filterCfg.Enabled {
			continue
		}

		factory, exists := registry[filterName]
		if !exists {
			return nil, fmt.Errorf("unknown filter: %s", filterName)
		}

		f := factory()
		if err := f.ValidateConfig(filterCfg.Settings); err != nil {
			return nil, fmt.Errorf("filter %s: %w", filterName, err)
		}
		chain.Add(f)
		zlog.Debug().Str("filter", f.Name()).Msg("intake filter enabled")
	}

	return chain, nil
}
