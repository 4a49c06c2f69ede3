// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package capture takes mobile-viewport screenshots of web pages and,
// optionally, records a video of the page scrolling from top to bottom.
//
// Each URL runs through a short linear state machine:
//
//	idle -> capturing-still -> scrolling-and-recording -> stopped
//
// The scrolling state is entered only when video capture is requested. URLs
// are processed one at a time against a single browser that is opened once
// per batch.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mediakit/pkg/types"
)

// ErrNoURLs is returned when a batch has nothing to capture.
var ErrNoURLs = errors.New("no URLs to capture")

// State is a step of the per-URL capture.
type State string

const (
	StateIdle           State = "idle"
	StateCapturingStill State = "capturing-still"
	StateScrolling      State = "scrolling-and-recording"
	StateStopped        State = "stopped"
)

// ScrollState is the vertical scroll position of a page and the largest
// position it can reach.
type ScrollState struct {
	Y   float64
	Max float64
}

// Short reports whether the page can still scroll down.
func (s ScrollState) Short() bool {
	return s.Y < s.Max
}

// Page is one browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Scroll(ctx context.Context) (ScrollState, error)
	ScrollBy(ctx context.Context, dy int) error
	ScrollTo(ctx context.Context, y int) error

	// StartRecording begins writing frames into dir.
	StartRecording(ctx context.Context, dir string) error

	// StopRecording ends the recording and returns the path of the
	// intermediate recording to hand to the encoder.
	StopRecording(ctx context.Context) (string, error)

	Close() error
}

// Browser opens pages. One browser serves a whole batch.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Encoder re-encodes an intermediate recording into its final container.
type Encoder interface {
	EncodeRecording(ctx context.Context, recordingPath, outputPath string) error
}

// Clock lets tests drive the scroll loop without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// URLOutcome is the result of capturing one URL.
type URLOutcome struct {
	URL            string
	ScreenshotPath string

	// VideoPath is set when a video was requested and encoded.
	VideoPath string

	// RecordingPath is set when encoding failed and the intermediate
	// recording was kept.
	RecordingPath string

	// Ticks and Scrolls count scroll-loop iterations and actual scroll steps.
	Ticks   int
	Scrolls int

	// Final is the last state reached.
	Final State
	Err   error
}

// BatchResult summarises a capture run.
type BatchResult struct {
	Outcomes []URLOutcome
	Captured int
	Failed   int
}

// Total returns the number of URLs processed.
func (r BatchResult) Total() int {
	return r.Captured + r.Failed
}

// HasFailures reports whether any URL failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Capturer runs the per-URL state machine.
type Capturer struct {
	Config  types.CaptureConfig
	Video   bool
	Encoder Encoder
	Clock   Clock

	// Preflight, when set, is called before navigation; an error fails the
	// URL without loading it in the browser.
	Preflight func(ctx context.Context, url string) error

	Out io.Writer
	Log zerolog.Logger

	// names holds the file stems written in the current batch.
	names slugSet
}

// CaptureBatch opens a browser, captures every URL in order, and closes the
// browser exactly once, whatever happens in between. URLs whose slugs
// collide get a numeric suffix so no capture overwrites another.
func (c *Capturer) CaptureBatch(ctx context.Context, open func(ctx context.Context) (Browser, error), urls []string) (BatchResult, error) {
	if len(urls) == 0 {
		return BatchResult{}, ErrNoURLs
	}
	if err := os.MkdirAll(c.Config.OutputDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory: %w", err)
	}

	browser, err := open(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("starting browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			c.Log.Warn().Err(err).Msg("closing browser")
		}
	}()

	c.names = slugSet{}
	var result BatchResult
	for _, u := range urls {
		o := c.CaptureURL(ctx, browser, u)
		c.report(o)
		result.Outcomes = append(result.Outcomes, o)
		if o.Err != nil {
			result.Failed++
		} else {
			result.Captured++
		}
	}
	fmt.Fprintf(c.Out, "\nBatch summary: %d captured, %d failed (total: %d)\n",
		result.Captured, result.Failed, result.Total())
	return result, nil
}

// CaptureURL runs the state machine for one URL on a fresh page.
func (c *Capturer) CaptureURL(ctx context.Context, browser Browser, rawURL string) URLOutcome {
	o := URLOutcome{URL: rawURL, Final: StateIdle}
	log := c.Log.With().Str("url", rawURL).Logger()

	target, err := NormalizeURL(rawURL)
	if err != nil {
		o.Err = err
		return o
	}
	o.URL = target

	if c.Preflight != nil {
		if err := c.Preflight(ctx, target); err != nil {
			o.Err = fmt.Errorf("preflight: %w", err)
			return o
		}
	}

	page, err := browser.NewPage(ctx)
	if err != nil {
		o.Err = fmt.Errorf("opening page: %w", err)
		return o
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug().Err(err).Msg("closing page")
		}
	}()

	// idle -> capturing-still
	if err := c.navigate(ctx, page, target); err != nil {
		o.Err = err
		return o
	}
	c.transition(log, &o, StateCapturingStill)

	shot, err := page.Screenshot(ctx)
	if err != nil {
		o.Err = fmt.Errorf("screenshot: %w", err)
		return o
	}
	slug := Slug(target)
	if c.names != nil {
		slug = c.names.claim(slug)
	}
	shotPath := filepath.Join(c.Config.OutputDir, slug+".png")
	if err := os.WriteFile(shotPath, shot, 0o644); err != nil {
		o.Err = fmt.Errorf("writing screenshot: %w", err)
		return o
	}
	o.ScreenshotPath = shotPath

	if !c.Video {
		c.transition(log, &o, StateStopped)
		return o
	}

	// capturing-still -> scrolling-and-recording
	c.transition(log, &o, StateScrolling)
	recording, err := c.record(ctx, page, slug, &o)
	c.transition(log, &o, StateStopped)
	if err != nil {
		o.Err = err
		o.RecordingPath = recording
		return o
	}

	// stopped: re-encode and drop the intermediate on success.
	videoPath := filepath.Join(c.Config.OutputDir, slug+"."+c.videoFormat())
	if err := c.Encoder.EncodeRecording(ctx, recording, videoPath); err != nil {
		o.Err = err
		o.RecordingPath = recording
		return o
	}
	if err := os.RemoveAll(filepath.Dir(recording)); err != nil {
		log.Warn().Err(err).Str("recording", recording).Msg("could not remove intermediate recording")
	}
	o.VideoPath = videoPath
	return o
}

func (c *Capturer) navigate(ctx context.Context, page Page, url string) error {
	navCtx := ctx
	if c.Config.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, c.Config.NavigationTimeout)
		defer cancel()
	}
	if err := page.Navigate(navCtx, url); err != nil {
		return fmt.Errorf("navigating: %w", err)
	}
	if c.Config.SettleDelay > 0 {
		if err := c.clock().Sleep(ctx, c.Config.SettleDelay); err != nil {
			return err
		}
	}
	return nil
}

// record scrolls to the top, starts recording, runs the scroll loop, and
// stops recording. It returns the intermediate recording path, which is
// also set when the loop failed after frames were written.
func (c *Capturer) record(ctx context.Context, page Page, slug string, o *URLOutcome) (string, error) {
	if err := page.ScrollTo(ctx, 0); err != nil {
		return "", fmt.Errorf("resetting scroll: %w", err)
	}

	dir, err := os.MkdirTemp(c.Config.OutputDir, "."+slug+"-frames-*")
	if err != nil {
		return "", fmt.Errorf("creating recording directory: %w", err)
	}
	if err := page.StartRecording(ctx, dir); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("starting recording: %w", err)
	}

	loopErr := c.scrollLoop(ctx, page, o)

	recording, stopErr := page.StopRecording(ctx)
	if loopErr != nil {
		return recording, fmt.Errorf("scrolling: %w", loopErr)
	}
	if stopErr != nil {
		return recording, fmt.Errorf("stopping recording: %w", stopErr)
	}
	return recording, nil
}

// scrollLoop runs for ScrollDuration of clock time. Every tick scrolls by
// ScrollStep when the page is short of its extent and then sleeps the full
// ScrollInterval whether or not it scrolled.
func (c *Capturer) scrollLoop(ctx context.Context, page Page, o *URLOutcome) error {
	clock := c.clock()
	start := clock.Now()
	for clock.Now().Sub(start) < c.Config.ScrollDuration {
		o.Ticks++
		state, err := page.Scroll(ctx)
		if err != nil {
			return err
		}
		if state.Short() {
			if err := page.ScrollBy(ctx, c.Config.ScrollStep); err != nil {
				return err
			}
			o.Scrolls++
		}
		if err := clock.Sleep(ctx, c.Config.ScrollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (c *Capturer) transition(log zerolog.Logger, o *URLOutcome, to State) {
	log.Debug().Str("from", string(o.Final)).Str("to", string(to)).Msg("capture state")
	o.Final = to
}

func (c *Capturer) clock() Clock {
	if c.Clock == nil {
		return RealClock
	}
	return c.Clock
}

func (c *Capturer) videoFormat() string {
	if c.Config.VideoFormat == "" {
		return "mp4"
	}
	return c.Config.VideoFormat
}

func (c *Capturer) report(o URLOutcome) {
	if o.Err != nil {
		fmt.Fprintf(c.Out, "failed:  %s (%v)\n", o.URL, o.Err)
		if o.ScreenshotPath != "" {
			fmt.Fprintf(c.Out, "  screenshot kept: %s\n", o.ScreenshotPath)
		}
		if o.RecordingPath != "" {
			fmt.Fprintf(c.Out, "  recording kept: %s\n", o.RecordingPath)
		}
		return
	}
	fmt.Fprintf(c.Out, "captured: %s -> %s\n", o.URL, o.ScreenshotPath)
	if o.VideoPath != "" {
		fmt.Fprintf(c.Out, "  video: %s (%d scroll steps)\n", o.VideoPath, o.Scrolls)
	}
}
