// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cli builds the cobra commands behind the mediakit binaries. Each
// binary is a single command with no subcommands; cmd/<tool>/main.go only
// picks the command and executes it.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/mediakit/internal/capture"
	"github.com/pdiddy/mediakit/internal/convert"
	"github.com/pdiddy/mediakit/internal/ffmpeg"
	"github.com/pdiddy/mediakit/internal/httputil"
	"github.com/pdiddy/mediakit/internal/logging"
	"github.com/pdiddy/mediakit/internal/progress"
	"github.com/pdiddy/mediakit/pkg/types"
)

// Execute runs cmd with a context cancelled on SIGINT or SIGTERM.
func Execute(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd.ExecuteContext(ctx)
}

// deps holds the collaborators a command reaches outside the process for.
// Tests swap them for fakes.
type deps struct {
	fs    afero.Fs
	getwd func() (string, error)

	progress     func() convert.ProgressReporter
	newConverter func(t tool, cfg types.Config, log zerolog.Logger) (convert.Converter, error)

	openBrowser func(ctx context.Context, cfg types.CaptureConfig, log zerolog.Logger) (capture.Browser, error)
	newEncoder  func(cfg types.Config, log zerolog.Logger) (capture.Encoder, error)
	preflight   func(cfg types.CaptureConfig, log zerolog.Logger) func(ctx context.Context, url string) error
	clock       capture.Clock
}

func defaultDeps() deps {
	return deps{
		fs:    afero.NewOsFs(),
		getwd: os.Getwd,
		progress: func() convert.ProgressReporter {
			return progress.New(os.Stderr)
		},
		newConverter: func(t tool, cfg types.Config, log zerolog.Logger) (convert.Converter, error) {
			ff, err := ffmpeg.New(cfg.FFmpeg, log)
			if err != nil {
				return nil, err
			}
			return t.build(ff, cfg), nil
		},
		openBrowser: func(ctx context.Context, cfg types.CaptureConfig, log zerolog.Logger) (capture.Browser, error) {
			b, err := capture.OpenChrome(ctx, cfg, logging.WithComponent(log, "chrome"))
			if err != nil {
				return nil, err
			}
			return b, nil
		},
		newEncoder: func(cfg types.Config, log zerolog.Logger) (capture.Encoder, error) {
			ff, err := ffmpeg.New(cfg.FFmpeg, log)
			if err != nil {
				return nil, err
			}
			return ffmpeg.NewFrameEncoder(ff, cfg.MP4.Quality, cfg.WebM.Quality), nil
		},
		preflight: func(cfg types.CaptureConfig, log zerolog.Logger) func(context.Context, string) error {
			p := httputil.NewPreflight(cfg.Viewport.UserAgent, cfg.NavigationTimeout, logging.WithComponent(log, "preflight"))
			return p.Check
		},
		clock: capture.RealClock,
	}
}

// newRunLogger returns the diagnostics logger for one invocation, tagged
// with the tool name and a fresh run id.
func newRunLogger(cmd *cobra.Command, name string) zerolog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.New(cmd.ErrOrStderr(), verbose).With().
		Str("tool", name).
		Str("run", uuid.NewString()).
		Logger()
}
