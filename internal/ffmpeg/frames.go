// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	fluent "github.com/u2takey/ffmpeg-go"
)

// recordingFrameRate is the constant output rate; frame durations from the
// concat list are resampled to it.
const recordingFrameRate = 30

// evenDimensions pads odd frame sizes, which yuv420p encoders reject.
const evenDimensions = "pad=ceil(iw/2)*2:ceil(ih/2)*2"

// FrameEncoder encodes a recorded frame sequence, described by an ffconcat
// list, into MP4 or WebM depending on the output extension.
type FrameEncoder struct {
	ff   *FFmpeg
	crf  map[string]int
	opts map[string]func(int) fluent.KwArgs
}

// NewFrameEncoder returns an encoder that uses mp4CRF and webmCRF for the
// respective containers.
func NewFrameEncoder(ff *FFmpeg, mp4CRF, webmCRF int) *FrameEncoder {
	return &FrameEncoder{
		ff:  ff,
		crf: map[string]int{".mp4": mp4CRF, ".webm": webmCRF},
		opts: map[string]func(int) fluent.KwArgs{
			".mp4": func(crf int) fluent.KwArgs {
				return fluent.KwArgs{
					"c:v":      "libx264",
					"crf":      crf,
					"pix_fmt":  "yuv420p",
					"movflags": "+faststart",
				}
			},
			".webm": func(crf int) fluent.KwArgs {
				return fluent.KwArgs{
					"c:v":     "libvpx-vp9",
					"crf":     crf,
					"b:v":     0,
					"pix_fmt": "yuv420p",
				}
			},
		},
	}
}

// EncodeRecording encodes the frames listed in listPath into outputPath.
func (e *FrameEncoder) EncodeRecording(ctx context.Context, listPath, outputPath string) error {
	ext := strings.ToLower(filepath.Ext(outputPath))
	build, ok := e.opts[ext]
	if !ok {
		return fmt.Errorf("unsupported recording container %q", ext)
	}

	kw := build(e.crf[ext])
	kw["vf"] = evenDimensions
	kw["r"] = recordingFrameRate
	in := fluent.KwArgs{"f": "concat", "safe": 0}

	if err := e.ff.encodeTo(ctx, listPath, in, outputPath, kw, 0, nil); err != nil {
		return fmt.Errorf("encoding recording %s: %w", outputPath, err)
	}
	return nil
}
