// team-alert is the desktop client: a terminal view that reports the boss
// to every teammate on the relay and shows their alerts from this seat.
//
// Settings live in a YAML file (see --config). Edit it and send SIGHUP to
// apply the changes; a new username or server reconnects the session.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/latestcomment/team-alert/internal/app"
	"github.com/latestcomment/team-alert/internal/client"
	"github.com/latestcomment/team-alert/internal/logging"
	"github.com/latestcomment/team-alert/internal/settings"
	"github.com/latestcomment/team-alert/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, username, serverURL, logFile, logLevel string
	var save bool

	flagSet := pflag.NewFlagSet("team-alert", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "settings file (default: <user config dir>/team-alert/settings.yaml)")
	flagSet.StringVarP(&username, "username", "u", "", "username shown to teammates")
	flagSet.StringVarP(&serverURL, "server", "s", "", "relay server URL, e.g. http://localhost:3000")
	flagSet.BoolVar(&save, "save", false, "write --username and --server to the settings file")
	flagSet.StringVar(&logFile, "log-file", "", "log file (default: client.log next to the settings file)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if configPath == "" {
		path, err := settings.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate settings: %w", err)
		}
		configPath = path
	}
	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(configPath), "client.log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	// The terminal belongs to the view, so records only go to the file.
	logger, closeLog, err := logging.New(logging.Options{Level: logLevel, Out: io.Discard, File: logFile})
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()

	store, err := settings.Open(configPath)
	if err != nil {
		return err
	}
	current := store.Get()
	if flagSet.Changed("username") {
		current.Username = strings.TrimSpace(username)
	}
	if flagSet.Changed("server") {
		current.ServerURL = strings.TrimSpace(serverURL)
	}
	if save {
		res, err := store.Save(current)
		if err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		current = res.Settings
		logger.Info().Str("path", store.Path()).Msg("settings saved")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	term := tui.NewTerminal(os.Stdout)
	a := app.New(current, app.Options{
		Platform: app.Platform{Notifier: term, Sound: term, Tray: term},
		Logger:   logger,
		Session:  client.DefaultConfig(),
	})
	if err := a.Start(ctx); err != nil {
		logger.Warn().Err(err).Msg("session not started")
	}
	defer a.Close()

	go reloadOnHangup(ctx, store, a, logger)

	program := tea.NewProgram(tui.NewModel(a), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// reloadOnHangup re-reads the settings file on SIGHUP.
func reloadOnHangup(ctx context.Context, store *settings.Store, a *app.App, logger zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			res, err := store.Reload()
			if err != nil {
				logger.Error().Err(err).Msg("settings reload failed")
				continue
			}
			logger.Info().Bool("restart", res.NeedsRestart).Msg("settings reloaded")
			if err := a.SettingsUpdated(res.Settings); err != nil {
				logger.Error().Err(err).Msg("settings not applied")
			}
		}
	}
}
