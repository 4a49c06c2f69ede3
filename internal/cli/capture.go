// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdiddy/mediakit/internal/capture"
	"github.com/pdiddy/mediakit/internal/logging"
	"github.com/pdiddy/mediakit/pkg/types"
)

// NewCaptureCommand returns the mobileshot command.
func NewCaptureCommand(version string) *cobra.Command {
	return newCaptureCommand(version, defaultDeps())
}

func newCaptureCommand(version string, d deps) *cobra.Command {
	defaults := types.DefaultConfig().Capture

	cmd := &cobra.Command{
		Use:   "mobileshot [urls...]",
		Short: "Capture mobile screenshots and scroll videos of web pages",
		Long: `mobileshot loads each URL in a headless Chrome emulating a phone and
saves a viewport screenshot as <output>/<name>.png.

With --video it also records the page while scrolling it from the top for
--duration, and saves <output>/<name>.mp4 (or .webm). URLs come from the
arguments and from --file, one per line; blank lines and lines starting
with # are ignored. URLs without a scheme get https://.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, args, d)
		},
	}

	cmd.Flags().StringP("output", "o", defaults.OutputDir, "directory for screenshots and videos")
	cmd.Flags().StringP("file", "f", "", "file with one URL per line")
	cmd.Flags().BoolP("video", "v", false, "also record a scrolling video")
	vf := videoFormat(defaults.VideoFormat)
	cmd.Flags().Var(&vf, "video-format", "video container: mp4 or webm")
	cmd.Flags().Duration("duration", defaults.ScrollDuration, "length of the scroll recording")
	cmd.Flags().Duration("interval", defaults.ScrollInterval, "pause between scroll steps")
	cmd.Flags().Int("step", defaults.ScrollStep, "pixels scrolled per step")
	cmd.Flags().Bool("preflight", defaults.Preflight, "check each URL over HTTP before loading it")

	addCommonFlags(cmd)
	return cmd
}

func runCapture(cmd *cobra.Command, args []string, d deps) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, used, err := loadConfig(d.fs, cfgFile)
	if err != nil {
		return err
	}
	if show, _ := cmd.Flags().GetBool("show-config"); show {
		return showConfig(cmd.OutOrStdout(), cfg)
	}

	video, _ := cmd.Flags().GetBool("video")
	if err := applyCaptureFlags(cmd, &cfg.Capture); err != nil {
		return err
	}

	urls := append([]string(nil), args...)
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		listed, err := capture.ReadURLFile(file)
		if err != nil {
			return err
		}
		urls = append(urls, listed...)
	}
	if len(urls) == 0 {
		return capture.ErrNoURLs
	}
	cmd.SilenceUsage = true

	log := newRunLogger(cmd, "mobileshot")
	if used != "" {
		log.Debug().Str("config", used).Msg("using config file")
	}

	c := &capture.Capturer{
		Config: cfg.Capture,
		Video:  video,
		Clock:  d.clock,
		Out:    cmd.OutOrStdout(),
		Log:    logging.WithComponent(log, "capture"),
	}
	if video {
		enc, err := d.newEncoder(cfg, log)
		if err != nil {
			return err
		}
		c.Encoder = enc
	}
	if cfg.Capture.Preflight {
		c.Preflight = d.preflight(cfg.Capture, log)
	}

	open := func(ctx context.Context) (capture.Browser, error) {
		return d.openBrowser(ctx, cfg.Capture, log)
	}
	result, err := c.CaptureBatch(cmd.Context(), open, urls)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		log.Warn().Int("failed", result.Failed).Msg("some URLs failed to capture")
	}
	return nil
}

// applyCaptureFlags overlays explicitly set flags on the configured values
// and validates the scroll settings.
func applyCaptureFlags(cmd *cobra.Command, cfg *types.CaptureConfig) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("video-format") {
		cfg.VideoFormat = flags.Lookup("video-format").Value.String()
	}
	if flags.Changed("duration") {
		cfg.ScrollDuration, _ = flags.GetDuration("duration")
	}
	if flags.Changed("interval") {
		cfg.ScrollInterval, _ = flags.GetDuration("interval")
	}
	if flags.Changed("step") {
		cfg.ScrollStep, _ = flags.GetInt("step")
	}
	if flags.Changed("preflight") {
		cfg.Preflight, _ = flags.GetBool("preflight")
	}

	cfg.VideoFormat = strings.ToLower(cfg.VideoFormat)
	switch {
	case cfg.VideoFormat != "mp4" && cfg.VideoFormat != "webm":
		return fmt.Errorf("video format must be mp4 or webm, got %q", cfg.VideoFormat)
	case cfg.ScrollDuration <= 0:
		return fmt.Errorf("--duration must be positive, got %s", cfg.ScrollDuration)
	case cfg.ScrollInterval <= 0:
		return fmt.Errorf("--interval must be positive, got %s", cfg.ScrollInterval)
	case cfg.ScrollStep <= 0:
		return fmt.Errorf("--step must be positive, got %d", cfg.ScrollStep)
	case cfg.OutputDir == "":
		return errors.New("--output must not be empty")
	}
	return nil
}

// videoFormat is a pflag.Value accepting the supported recording containers.
type videoFormat string

func (f *videoFormat) String() string { return string(*f) }

func (f *videoFormat) Set(s string) error {
	switch v := strings.ToLower(s); v {
	case "mp4", "webm":
		*f = videoFormat(v)
		return nil
	default:
		return errors.New("must be mp4 or webm")
	}
}

func (f *videoFormat) Type() string { return "format" }

var _ pflag.Value = (*videoFormat)(nil)
