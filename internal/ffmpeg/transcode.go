// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"time"

	fluent "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/webp"

	"github.com/pdiddy/mediakit/internal/convert"
	"github.com/pdiddy/mediakit/pkg/types"
)

// VideoConverter encodes one video file into MP4 (H.264/AAC) or WebM
// (VP9/Opus).
type VideoConverter struct {
	ff     *FFmpeg
	codec  videoCodec
	config types.VideoConfig
}

type videoCodec int

const (
	codecH264 videoCodec = iota
	codecVP9
)

// NewMP4Converter returns a converter producing H.264/AAC MP4 files.
func NewMP4Converter(ff *FFmpeg, cfg types.VideoConfig) *VideoConverter {
	return &VideoConverter{ff: ff, codec: codecH264, config: cfg}
}

// NewWebMConverter returns a converter producing VP9/Opus WebM files.
func NewWebMConverter(ff *FFmpeg, cfg types.VideoConfig) *VideoConverter {
	return &VideoConverter{ff: ff, codec: codecVP9, config: cfg}
}

// Convert encodes job.SourcePath into job.OutputPath at the job's CRF.
func (c *VideoConverter) Convert(ctx context.Context, job types.ConversionJob, progress convert.ProgressFunc) (*types.SizeStats, error) {
	var duration time.Duration
	if progress != nil {
		d, err := c.ff.ProbeDuration(ctx, job.SourcePath)
		if err != nil {
			c.ff.log.Debug().Err(err).Str("source", job.SourcePath).Msg("probe failed, progress disabled")
		}
		duration = d
	}

	if err := c.ff.encodeTo(ctx, job.SourcePath, nil, job.OutputPath, c.outputArgs(job.Params.Quality), duration, progress); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", job.SourcePath, err)
	}
	return fileStats(job.SourcePath, job.OutputPath)
}

func (c *VideoConverter) outputArgs(crf int) fluent.KwArgs {
	switch c.codec {
	case codecVP9:
		return vp9Args(crf, c.config)
	default:
		return h264Args(crf, c.config)
	}
}

func h264Args(crf int, cfg types.VideoConfig) fluent.KwArgs {
	kw := fluent.KwArgs{
		"c:v":      "libx264",
		"crf":      crf,
		"pix_fmt":  "yuv420p",
		"c:a":      "aac",
		"movflags": "+faststart",
	}
	if cfg.Preset != "" {
		kw["preset"] = cfg.Preset
	}
	if cfg.AudioBitrate != "" {
		kw["b:a"] = cfg.AudioBitrate
	}
	return kw
}

func vp9Args(crf int, cfg types.VideoConfig) fluent.KwArgs {
	kw := fluent.KwArgs{
		"c:v":      "libvpx-vp9",
		"crf":      crf,
		"b:v":      0,
		"row-mt":   1,
		"cpu-used": cfg.CPUUsed,
		"c:a":      "libopus",
	}
	if cfg.Preset != "" {
		kw["deadline"] = cfg.Preset
	}
	if cfg.AudioBitrate != "" {
		kw["b:a"] = cfg.AudioBitrate
	}
	return kw
}

// ImageConverter encodes one image into WebP, fitting it inside the job's
// width and height bounds when set.
type ImageConverter struct {
	ff     *FFmpeg
	config types.ImageConfig
}

// NewWebPConverter returns a converter producing WebP files.
func NewWebPConverter(ff *FFmpeg, cfg types.ImageConfig) *ImageConverter {
	return &ImageConverter{ff: ff, config: cfg}
}

// Convert encodes job.SourcePath into job.OutputPath. Images finish too fast
// for meaningful progress, so only completion is reported.
func (c *ImageConverter) Convert(ctx context.Context, job types.ConversionJob, progress convert.ProgressFunc) (*types.SizeStats, error) {
	kw := webpArgs(job.SourcePath, job.Params, c.config)
	if err := c.ff.encodeTo(ctx, job.SourcePath, nil, job.OutputPath, kw, 0, progress); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", job.SourcePath, err)
	}

	stats, err := fileStats(job.SourcePath, job.OutputPath)
	if err != nil {
		return nil, err
	}
	if w, h, err := webpDimensions(job.OutputPath); err == nil {
		stats.Width, stats.Height = w, h
	} else {
		c.ff.log.Debug().Err(err).Str("output", job.OutputPath).Msg("could not read webp dimensions")
	}
	return stats, nil
}

func webpArgs(source string, params types.FormatParams, cfg types.ImageConfig) fluent.KwArgs {
	kw := fluent.KwArgs{
		"quality":           params.Quality,
		"compression_level": cfg.CompressionLevel,
	}
	if isAnimatedSource(source) {
		kw["c:v"] = "libwebp_anim"
		kw["loop"] = 0
	} else {
		kw["c:v"] = "libwebp"
		kw["frames:v"] = 1
	}
	if vf := ScaleFilter(params.Width, params.Height); vf != "" {
		kw["vf"] = vf
	}
	return kw
}

// webpDimensions reads the canvas size from a WebP header.
func webpDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, err := webp.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding webp header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

var (
	_ convert.Converter = (*VideoConverter)(nil)
	_ convert.Converter = (*ImageConverter)(nil)
)
