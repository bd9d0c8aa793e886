// Package commands wires the winterbreak command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/winterbreak/internal/app"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/printers"
)

// cmdTimeout bounds one command including its remote calls.
const cmdTimeout = 60 * time.Second

type rootOptions struct {
	ConfigPath string
	Verbose    bool
	ShowID     bool
}

var oo = &rootOptions{}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "winterbreak",
		Short: "Plan a winter break day by day, offline first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&oo.ConfigPath, "config", model.DefaultConfigPath(),
		"Path to the YAML config file.")
	cmd.PersistentFlags().BoolVarP(&oo.Verbose, "verbose", "v", false,
		"Log to stderr instead of the log file.")
	cmd.PersistentFlags().BoolVar(&oo.ShowID, "id", false,
		"Show record ids in listings.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addToday(topLevel)
	addHabit(topLevel)
	addQueue(topLevel)
	addFlush(topLevel)
	addExport(topLevel)
	addImport(topLevel)
	addPhotos(topLevel)
	addReport(topLevel)
	addSecret(topLevel)
	addCache(topLevel)
}

// session is an opened App plus the log file behind it.
type session struct {
	app     *app.App
	logFile io.Closer
}

func (s *session) Close() {
	if err := s.app.Close(); err != nil {
		slog.Default().Warn("closing app", "err", err)
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// open loads the config, sets up logging and opens the app. Missed day
// rollovers are applied before returning.
func open() (*session, error) {
	cfg, err := model.LoadConfig(oo.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	log, closer, err := newLogger(cfg.Storage.LogPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	a, err := app.Open(cfg, log, app.WithConfigPath(oo.ConfigPath))
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	a.Rollover().CatchUp()
	return &session{app: a, logFile: closer}, nil
}

func newLogger(path string) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if oo.Verbose || path == "" {
		opts.Level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cmdTimeout)
}

func printer(cmd *cobra.Command) *printers.PrettyPrint {
	return &printers.PrettyPrint{W: cmd.OutOrStdout(), ShowID: oo.ShowID}
}
