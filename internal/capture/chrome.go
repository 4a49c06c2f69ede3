// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/mediakit/pkg/types"
)

// recordingListName is the ffconcat list written next to the frames.
const recordingListName = "frames.ffconcat"

// lastFrameHold is how long the final frame stays on screen.
const lastFrameHold = 100 * time.Millisecond

// ChromeBrowser drives a headless Chrome through the DevTools protocol.
type ChromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	viewport    types.ViewportConfig
	quality     int
	log         zerolog.Logger
	once        sync.Once
}

// OpenChrome starts a headless browser sized to the configured viewport.
func OpenChrome(ctx context.Context, cfg types.CaptureConfig, log zerolog.Logger) (*ChromeBrowser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	if cfg.Viewport.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Viewport.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithDebugf(func(format string, args ...any) {
			log.Trace().Msgf(format, args...)
		}),
	)

	// The first Run launches the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("launching chrome: %w", err)
	}

	quality := cfg.FrameQuality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &ChromeBrowser{
		ctx:         browserCtx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		viewport:    cfg.Viewport,
		quality:     quality,
		log:         log,
	}, nil
}

// NewPage opens a tab with mobile emulation applied.
func (b *ChromeBrowser) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	p := &chromePage{ctx: tabCtx, cancel: cancel, quality: b.quality, log: b.log}

	scale := b.viewport.Scale
	if scale <= 0 {
		scale = 1
	}
	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(b.viewport.Width), int64(b.viewport.Height),
			chromedp.EmulateScale(scale), chromedp.EmulateMobile),
	}
	if b.viewport.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(b.viewport.UserAgent))
	}
	if err := p.run(ctx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("emulating device: %w", err)
	}
	return p, nil
}

// Close shuts the browser down. Calls after the first are no-ops.
func (b *ChromeBrowser) Close() error {
	var err error
	b.once.Do(func() {
		err = chromedp.Cancel(b.ctx)
		b.cancel()
		b.cancelAlloc()
	})
	return err
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	quality int
	log     zerolog.Logger

	rec *screencast
}

// run executes actions on the tab, bounded by the caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if dl, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(p.ctx, dl)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (p *chromePage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *chromePage) Scroll(ctx context.Context) (ScrollState, error) {
	var pos []float64
	expr := `[window.scrollY, Math.max(0, document.documentElement.scrollHeight - window.innerHeight)]`
	if err := p.run(ctx, chromedp.Evaluate(expr, &pos)); err != nil {
		return ScrollState{}, err
	}
	if len(pos) != 2 {
		return ScrollState{}, fmt.Errorf("unexpected scroll state %v", pos)
	}
	return ScrollState{Y: pos[0], Max: pos[1]}, nil
}

func (p *chromePage) ScrollBy(ctx context.Context, dy int) error {
	var y float64
	return p.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d); window.scrollY", dy), &y))
}

func (p *chromePage) ScrollTo(ctx context.Context, y int) error {
	var got float64
	return p.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d); window.scrollY", y), &got))
}

// StartRecording starts a JPEG screencast. Frames are written into dir as
// they arrive and acknowledged so Chrome keeps sending them.
func (p *chromePage) StartRecording(ctx context.Context, dir string) error {
	if p.rec != nil {
		return errors.New("recording already started")
	}
	rec := &screencast{dir: dir, log: p.log}
	p.rec = rec

	chromedp.ListenTarget(p.ctx, func(ev any) {
		frame, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}
		rec.add(frame.Data, time.Now())
		go func(id int64) {
			if err := chromedp.Run(p.ctx, page.ScreencastFrameAck(id)); err != nil {
				p.log.Trace().Err(err).Msg("screencast ack")
			}
		}(frame.SessionID)
	})

	return p.run(ctx, page.StartScreencast().
		WithFormat(page.ScreencastFormatJpeg).
		WithQuality(int64(p.quality)).
		WithEveryNthFrame(1))
}

// StopRecording stops the screencast and writes the ffconcat list that
// replays the frames at their captured timing.
func (p *chromePage) StopRecording(ctx context.Context) (string, error) {
	if p.rec == nil {
		return "", errors.New("recording not started")
	}
	stopErr := p.run(ctx, page.StopScreencast())
	list, err := p.rec.finish()
	p.rec = nil
	if stopErr != nil {
		return list, fmt.Errorf("stopping screencast: %w", stopErr)
	}
	return list, err
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

// screencast collects frames on disk. add is called from the DevTools
// event goroutine and finish from the capture goroutine.
type screencast struct {
	mu     sync.Mutex
	dir    string
	log    zerolog.Logger
	frames []recordedFrame
	err    error
	done   bool
}

type recordedFrame struct {
	name string
	at   time.Time
}

func (s *screencast) add(data string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done || s.err != nil {
		return
	}
	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		s.err = fmt.Errorf("decoding frame: %w", err)
		return
	}
	name := fmt.Sprintf("frame-%05d.jpg", len(s.frames)+1)
	if err := os.WriteFile(filepath.Join(s.dir, name), img, 0o644); err != nil {
		s.err = fmt.Errorf("writing frame: %w", err)
		return
	}
	s.frames = append(s.frames, recordedFrame{name: name, at: at})
}

// finish writes the concat list and returns its path.
func (s *screencast) finish() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true

	path := filepath.Join(s.dir, recordingListName)
	if err := os.WriteFile(path, []byte(concatList(s.frames)), 0o644); err != nil {
		return path, fmt.Errorf("writing frame list: %w", err)
	}
	if s.err != nil {
		return path, s.err
	}
	if len(s.frames) == 0 {
		return path, errors.New("no frames recorded")
	}
	s.log.Debug().Int("frames", len(s.frames)).Str("dir", s.dir).Msg("recording finished")
	return path, nil
}

// concatList renders an ffconcat script. Each frame lasts until the next
// one arrived; the last frame is listed twice so its duration is honoured.
func concatList(frames []recordedFrame) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for i, f := range frames {
		d := lastFrameHold
		if i+1 < len(frames) {
			d = frames[i+1].at.Sub(f.at)
		}
		fmt.Fprintf(&b, "file '%s'\nduration %.6f\n", f.name, d.Seconds())
	}
	if n := len(frames); n > 0 {
		fmt.Fprintf(&b, "file '%s'\n", frames[n-1].name)
	}
	return b.String()
}

var (
	_ Browser = (*ChromeBrowser)(nil)
	_ Page    = (*chromePage)(nil)
)
