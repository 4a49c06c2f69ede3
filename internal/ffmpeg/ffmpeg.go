// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ffmpeg drives the ffmpeg and ffprobe binaries. It provides the
// single-file converters used by the batch tools and the encoder that turns
// recorded screencast frames into a video.
package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	fluent "github.com/u2takey/ffmpeg-go"

	"github.com/pdiddy/mediakit/pkg/types"
)

// ErrBinaryNotFound is returned by New when ffmpeg is not on PATH.
var ErrBinaryNotFound = errors.New("ffmpeg binary not found")

const stderrTail = 4096

// FFmpeg runs encodes and probes with the binaries named in its config.
type FFmpeg struct {
	bin     string
	probe   string
	threads int
	exec    executor
	log     zerolog.Logger
}

// New resolves the configured binaries. ffmpeg is required; a missing
// ffprobe only disables progress reporting.
func New(cfg types.FFmpegConfig, log zerolog.Logger) (*FFmpeg, error) {
	return newFFmpeg(cfg, log, defaultExec)
}

func newFFmpeg(cfg types.FFmpegConfig, log zerolog.Logger, exec executor) (*FFmpeg, error) {
	bin := cfg.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, bin, err)
	}

	f := &FFmpeg{
		bin:     path,
		threads: cfg.Threads,
		exec:    exec,
		log:     log.With().Str("component", "ffmpeg").Logger(),
	}

	probe := cfg.ProbeBinary
	if probe == "" {
		probe = "ffprobe"
	}
	if p, err := exec.LookPath(probe); err == nil {
		f.probe = p
	} else {
		f.log.Warn().Str("binary", probe).Msg("ffprobe not found, progress disabled")
	}
	return f, nil
}

// Args builds an ffmpeg command line for a single input and output. ffmpeg
// writes machine-readable progress to stdout and overwrites the output.
func (f *FFmpeg) Args(input string, inKw fluent.KwArgs, output string, outKw fluent.KwArgs) []string {
	if f.threads > 0 {
		merged := fluent.KwArgs{"threads": f.threads}
		for k, v := range outKw {
			merged[k] = v
		}
		outKw = merged
	}
	return fluent.Input(input, inKw).
		Output(output, outKw).
		GlobalArgs("-hide_banner", "-nostats", "-loglevel", "error", "-progress", "pipe:1").
		OverWriteOutput().
		GetArgs()
}

// Run executes ffmpeg with args. When duration is positive and report is
// non-nil, report receives percent values as the encode advances.
func (f *FFmpeg) Run(ctx context.Context, args []string, duration time.Duration, report func(float64)) error {
	f.log.Debug().Strs("args", args).Msg("executing ffmpeg")

	stdout := newProgressWriter(duration, report)
	stderr := &tailBuffer{limit: stderrTail}
	if err := f.exec.Stream(ctx, f.bin, args, stdout, stderr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if msg := stderr.LastLine(); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// ProbeDuration returns the container duration of path. It returns 0 and
// no error when ffprobe is unavailable.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	if f.probe == "" {
		return 0, nil
	}
	out, err := f.exec.Output(ctx, f.probe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" || probe.Format.Duration == "N/A" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// encodeTo runs an encode into a temporary file beside output and renames
// it into place on success, so a failed encode never leaves a truncated
// output behind. The temporary file keeps output's extension because
// ffmpeg picks the container from it.
func (f *FFmpeg) encodeTo(ctx context.Context, input string, inKw fluent.KwArgs, output string, outKw fluent.KwArgs, duration time.Duration, report func(float64)) error {
	ext := filepath.Ext(output)
	tmp, err := os.CreateTemp(filepath.Dir(output), ".mediakit-*"+ext)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := f.Run(ctx, f.Args(input, inKw, tmpPath, outKw), duration, report); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, output); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// fileStats stats source and output after a successful encode.
func fileStats(source, output string) (*types.SizeStats, error) {
	in, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	out, err := os.Stat(output)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}
	return &types.SizeStats{SourceBytes: in.Size(), OutputBytes: out.Size()}, nil
}

// ScaleFilter returns a scale filter that fits the input inside a
// width x height box without upscaling and keeps the aspect ratio. A zero
// bound leaves that dimension free. Both zero returns "".
func ScaleFilter(width, height int) string {
	switch {
	case width > 0 && height > 0:
		return fmt.Sprintf("scale=w='min(iw,%d)':h='min(ih,%d)':force_original_aspect_ratio=decrease", width, height)
	case width > 0:
		return fmt.Sprintf("scale=w='min(iw,%d)':h=-1", width)
	case height > 0:
		return fmt.Sprintf("scale=w=-1:h='min(ih,%d)'", height)
	default:
		return ""
	}
}

// isAnimatedSource reports whether path is a format ffmpeg decodes as a
// multi-frame image sequence.
func isAnimatedSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gif")
}
