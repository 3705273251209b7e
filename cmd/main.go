// macrorec - input macro recorder and player
// Records timestamped keyboard/mouse events and replays them with the
// original timing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"macrorec/internal/api"
	"macrorec/internal/config"
	"macrorec/internal/event"
	"macrorec/internal/input"
	xlog "macrorec/internal/log"
	"macrorec/internal/player"
	"macrorec/internal/recorder"
	"macrorec/internal/store"
)

var version = "0.1.0"

var (
	configPath string
	output     string
	noAPI      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "macrorec",
		Short:   "Record and replay keyboard/mouse macros",
		Version: version,
		Long: `macrorec records mouse clicks, scrolls and key presses together with
their timing, and replays them later through the OS input layer.

During recording, Pause toggles pause/resume and releasing Esc ends the
session. During playback, Pause toggles pause/resume and an Esc recorded
in the macro ends playback early.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: per-OS config dir)")
	rootCmd.PersistentFlags().BoolVar(&noAPI, "no-api", false, "Disable the HTTP control server even if enabled in config")

	recordCmd := &cobra.Command{
		Use:   "record <name>",
		Short: "Record a macro until the exit key is released",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecord,
	}
	recordCmd.Flags().StringVarP(&output, "output", "o", "", "Write the recording to an explicit path instead of the recordings dir")

	playCmd := &cobra.Command{
		Use:   "play <name-or-path>",
		Short: "Replay a recorded macro",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved recordings",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	rootCmd.AddCommand(recordCmd, playCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging.
func setup() (*config.Manager, zerolog.Logger, error) {
	var cfgMgr *config.Manager
	var err error
	if configPath != "" {
		cfgMgr = config.NewManagerAt(configPath)
	} else {
		cfgMgr, err = config.NewManager()
		if err != nil {
			return nil, zerolog.Nop(), fmt.Errorf("initialize config: %w", err)
		}
	}
	if err := cfgMgr.Load(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	xlog.Configure(xlog.Config{Level: cfgMgr.Get().General.LogLevel})
	return cfgMgr, xlog.Logger(), nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfgMgr, logger, err := setup()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	path := output
	if path == "" {
		path = filepath.Join(cfg.General.RecordingsDir, args[0]+".json")
	}

	trap := input.NewTrap()
	rec := recorder.New(trap, recorder.Options{
		PauseKey:   event.ParseKey(cfg.Capture.PauseKey),
		ExitKey:    event.ParseKey(cfg.Capture.ExitKey),
		Ignored:    parseKeys(cfg.Capture.IgnoredKeys),
		Refractory: cfg.Refractory(),
		Logger:     logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.General.APIEnabled && !noAPI {
		startAPI(cfgMgr, logger, api.Hooks{
			TogglePause: rec.TogglePause,
			Abort:       cancel,
			Status: func() api.Status {
				active, paused := rec.Recording()
				return sessionStatus("recording", active, paused)
			},
		})
	}

	fmt.Printf("Recording... press %s to pause/resume, release %s to finish.\n",
		cfg.Capture.PauseKey, cfg.Capture.ExitKey)

	recording, err := rec.Begin(ctx)
	if err != nil {
		return err
	}

	if err := store.Save(path, recording); err != nil {
		return err
	}
	fmt.Printf("Recorded %d events to %s\n", len(recording), path)
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfgMgr, logger, err := setup()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	path := args[0]
	if filepath.Ext(path) == "" {
		path = filepath.Join(cfg.General.RecordingsDir, path+".json")
	}

	recording, err := store.Load(path)
	if err != nil {
		return err
	}

	pl := player.New(input.NewInjector(), player.Options{
		PauseKey:    event.ParseKey(cfg.Playback.PauseKey),
		EscapeKey:   event.ParseKey(cfg.Playback.EscapeKey),
		PauseSource: input.NewTrap(),
		ScrollUnit:  cfg.Playback.ScrollUnit,
		Slice:       cfg.WaitSlice(),
		Refractory:  cfg.Refractory(),
		Logger:      logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.General.APIEnabled && !noAPI {
		startAPI(cfgMgr, logger, api.Hooks{
			TogglePause: pl.TogglePause,
			Abort:       pl.Abort,
			Status: func() api.Status {
				active, paused := pl.Playing()
				return sessionStatus("playing", active, paused)
			},
		})
	}

	fmt.Printf("Playing %d events from %s... press %s to pause/resume.\n",
		len(recording), path, cfg.Playback.PauseKey)

	start := time.Now()
	result := pl.Play(ctx, recording)

	fmt.Printf("Playback %s: %d/%d events in %s\n",
		result.Reason, result.Executed, len(recording), time.Since(start).Round(time.Millisecond))
	if result.Reason == player.AbortedByError {
		return result.Err
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfgMgr, _, err := setup()
	if err != nil {
		return err
	}

	dir := cfgMgr.Get().General.RecordingsDir
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		fmt.Println("No recordings yet.")
		return nil
	}
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func startAPI(cfgMgr *config.Manager, logger zerolog.Logger, hooks api.Hooks) {
	srv := api.NewServer(cfgMgr, hooks, logger)
	port := cfgMgr.Get().General.APIPort
	go func() {
		if err := srv.Start(port); err != nil {
			logger.Warn().Err(err).Msg("control server stopped")
		}
	}()
}

func sessionStatus(mode string, active, paused bool) api.Status {
	if !active {
		return api.Status{Mode: "idle"}
	}
	return api.Status{Mode: mode, Paused: paused}
}

func parseKeys(names []string) []event.Key {
	keys := make([]event.Key, 0, len(names))
	for _, n := range names {
		keys = append(keys, event.ParseKey(n))
	}
	return keys
}
