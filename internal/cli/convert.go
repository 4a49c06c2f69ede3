// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mediakit/internal/convert"
	"github.com/pdiddy/mediakit/internal/ffmpeg"
	"github.com/pdiddy/mediakit/internal/format"
	"github.com/pdiddy/mediakit/internal/logging"
	"github.com/pdiddy/mediakit/pkg/types"
)

// tool describes one converter binary.
type tool struct {
	name   string
	format format.Format
	short  string
	long   string

	// quality returns the configured default for the format.
	quality func(cfg types.Config) int

	// build returns the ffmpeg-backed converter.
	build func(ff *ffmpeg.FFmpeg, cfg types.Config) convert.Converter
}

var (
	mp4Tool = tool{
		name:   "tomp4",
		format: format.MP4,
		short:  "Convert videos to MP4 (H.264/AAC)",
		long: `tomp4 re-encodes video files to MP4 with H.264 video and AAC audio.

Inputs are literal paths, a glob pattern (--pattern, supports **), and a
directory scanned recursively (--dir); all three combine. Sources are
deleted after a successful conversion unless --keep is given.`,
		quality: func(cfg types.Config) int { return cfg.MP4.Quality },
		build: func(ff *ffmpeg.FFmpeg, cfg types.Config) convert.Converter {
			return ffmpeg.NewMP4Converter(ff, cfg.MP4)
		},
	}

	webmTool = tool{
		name:   "towebm",
		format: format.WebM,
		short:  "Convert videos to WebM (VP9/Opus)",
		long: `towebm re-encodes video files to WebM with VP9 video and Opus audio.

Inputs are literal paths, a glob pattern (--pattern, supports **), and a
directory scanned recursively (--dir); all three combine. Sources are kept
unless --remove is given.`,
		quality: func(cfg types.Config) int { return cfg.WebM.Quality },
		build: func(ff *ffmpeg.FFmpeg, cfg types.Config) convert.Converter {
			return ffmpeg.NewWebMConverter(ff, cfg.WebM)
		},
	}

	webpTool = tool{
		name:   "towebp",
		format: format.WebP,
		short:  "Convert images to WebP",
		long: `towebp encodes images to WebP. GIF sources become animated WebP.

Inputs are literal paths, a glob pattern (--pattern, supports **), and a
directory scanned recursively (--dir); all three combine. --width and
--height fit the image inside a bounding box, keeping its aspect ratio and
never enlarging it. Sources are kept unless --remove is given.`,
		quality: func(cfg types.Config) int { return cfg.WebP.Quality },
		build: func(ff *ffmpeg.FFmpeg, cfg types.Config) convert.Converter {
			return ffmpeg.NewWebPConverter(ff, cfg.WebP)
		},
	}
)

// NewMP4Command returns the tomp4 command.
func NewMP4Command(version string) *cobra.Command {
	return newConverterCommand(mp4Tool, version, defaultDeps())
}

// NewWebMCommand returns the towebm command.
func NewWebMCommand(version string) *cobra.Command {
	return newConverterCommand(webmTool, version, defaultDeps())
}

// NewWebPCommand returns the towebp command.
func NewWebPCommand(version string) *cobra.Command {
	return newConverterCommand(webpTool, version, defaultDeps())
}

func newConverterCommand(t tool, version string, d deps) *cobra.Command {
	defaults := types.DefaultConfig()

	cmd := &cobra.Command{
		Use:     t.name + " [paths...]",
		Short:   t.short,
		Long:    t.long,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, t, d)
		},
	}

	retention := "delete sources after a successful conversion (default)"
	keep := "keep source files"
	if t.format.KeepByDefault {
		retention = "delete sources after a successful conversion"
		keep = "keep source files (default)"
	}

	cmd.Flags().StringP("output", "o", "", "directory for converted files (default: next to each source)")
	cmd.Flags().StringP("pattern", "p", "", "glob pattern for inputs, relative to the working directory")
	cmd.Flags().StringP("dir", "d", "", "directory to scan recursively for inputs")
	cmd.Flags().BoolP("keep", "k", false, keep)
	cmd.Flags().BoolP("remove", "r", false, retention)
	cmd.Flags().IntP("quality", "q", t.quality(defaults),
		fmt.Sprintf("%s %d-%d", t.format.QualityName, t.format.Quality.Min, t.format.Quality.Max))
	cmd.MarkFlagsMutuallyExclusive("keep", "remove")

	if t.format.Resizable() {
		cmd.Flags().IntP("width", "w", 0, "maximum output width in pixels")
		// No shorthand: -h is help.
		cmd.Flags().Int("height", 0, "maximum output height in pixels")
	}

	addCommonFlags(cmd)
	return cmd
}

func runConvert(cmd *cobra.Command, args []string, t tool, d deps) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, used, err := loadConfig(d.fs, cfgFile)
	if err != nil {
		return err
	}
	if show, _ := cmd.Flags().GetBool("show-config"); show {
		return showConfig(cmd.OutOrStdout(), cfg)
	}

	req, err := batchRequest(cmd, args, t, cfg)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	log := newRunLogger(cmd, t.name)
	if used != "" {
		log.Debug().Str("config", used).Msg("using config file")
	}

	conv, err := d.newConverter(t, cfg, log)
	if err != nil {
		return err
	}
	root, err := d.getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	driver := &convert.Driver{
		Format:    t.format,
		Converter: conv,
		Fs:        d.fs,
		Root:      root,
		Progress:  d.progress(),
		Out:       cmd.OutOrStdout(),
		Log:       logging.WithComponent(log, "convert"),
	}
	result, err := driver.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		log.Warn().Int("failed", result.Failed).Msg("some files failed to convert")
	}
	return nil
}

// batchRequest turns flags and config into the request. Numeric flags are
// validated here so nothing runs on bad input.
func batchRequest(cmd *cobra.Command, args []string, t tool, cfg types.Config) (types.BatchRequest, error) {
	flags := cmd.Flags()
	req := types.BatchRequest{
		Inputs:       args,
		KeepOriginal: t.format.KeepByDefault,
		Params:       types.FormatParams{Quality: t.quality(cfg)},
	}
	req.Pattern, _ = flags.GetString("pattern")
	req.Dir, _ = flags.GetString("dir")
	req.OutputDir, _ = flags.GetString("output")

	if keep, _ := flags.GetBool("keep"); keep {
		req.KeepOriginal = true
	}
	if remove, _ := flags.GetBool("remove"); remove {
		req.KeepOriginal = false
	}

	if flags.Changed("quality") {
		req.Params.Quality, _ = flags.GetInt("quality")
	}
	if err := t.format.ValidateQuality(req.Params.Quality); err != nil {
		return req, err
	}

	if t.format.Resizable() {
		for _, name := range []string{"width", "height"} {
			if !flags.Changed(name) {
				continue
			}
			n, _ := flags.GetInt(name)
			if n <= 0 {
				return req, fmt.Errorf("--%s must be a positive number of pixels, got %d", name, n)
			}
			if name == "width" {
				req.Params.Width = n
			} else {
				req.Params.Height = n
			}
		}
	}
	return req, nil
}
