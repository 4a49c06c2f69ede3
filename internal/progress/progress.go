// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress renders per-job percent-complete on a single terminal
// line. Output is suppressed when the writer is not a terminal.
package progress

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/mediakit/internal/convert"
	"github.com/pdiddy/mediakit/pkg/types"
)

// Bar is a convert.ProgressReporter drawing one progressbar per job.
type Bar struct {
	w io.Writer
}

// New returns a reporter writing to w, or nil when w is not a terminal so
// callers can pass the result straight into a convert.Driver.
func New(w *os.File) convert.ProgressReporter {
	if !IsTerminal(w) {
		return nil
	}
	return &Bar{w: w}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Start creates the bar for job. The bar is cleared when the job finishes
// so the following status line starts on a clean row.
func (b *Bar) Start(job types.ConversionJob) convert.ProgressSink {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(filepath.Base(job.SourcePath)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &sink{bar: bar}
}

type sink struct {
	bar  *progressbar.ProgressBar
	last int
}

// Update moves the bar forward. Values are clamped to [0, 100] and never
// move the bar backwards.
func (s *sink) Update(percent float64) {
	p := int(percent)
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p <= s.last {
		return
	}
	s.last = p
	_ = s.bar.Set(p)
}

func (s *sink) Finish() {
	_ = s.bar.Finish()
}
