// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mediakit/internal/convert"
	"github.com/pdiddy/mediakit/internal/ffmpeg"
	"github.com/pdiddy/mediakit/internal/format"
	"github.com/pdiddy/mediakit/pkg/types"
)

// fakeConverter writes an output file into the in-memory filesystem.
type fakeConverter struct {
	fs   afero.Fs
	jobs []types.ConversionJob
	fail map[string]bool
}

func (f *fakeConverter) Convert(_ context.Context, job types.ConversionJob, _ convert.ProgressFunc) (*types.SizeStats, error) {
	f.jobs = append(f.jobs, job)
	if f.fail[job.SourcePath] {
		return nil, errors.New("encoder failed")
	}
	if err := afero.WriteFile(f.fs, job.OutputPath, []byte("out"), 0o644); err != nil {
		return nil, err
	}
	return &types.SizeStats{SourceBytes: 2048, OutputBytes: 1024}, nil
}

type harness struct {
	fs      afero.Fs
	conv    *fakeConverter
	deps    deps
	builds  int
	out     bytes.Buffer
	errOut  bytes.Buffer
	convErr error
}

func newHarness(t *testing.T, files ...string) *harness {
	t.Helper()
	h := &harness{fs: afero.NewMemMapFs()}
	h.conv = &fakeConverter{fs: h.fs}
	for _, p := range files {
		require.NoError(t, h.fs.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(h.fs, p, []byte("source"), 0o644))
	}
	h.deps = deps{
		fs:       h.fs,
		getwd:    func() (string, error) { return "/work", nil },
		progress: func() convert.ProgressReporter { return nil },
		newConverter: func(tool, types.Config, zerolog.Logger) (convert.Converter, error) {
			h.builds++
			if h.convErr != nil {
				return nil, h.convErr
			}
			return h.conv, nil
		},
	}
	return h
}

func (h *harness) run(t *testing.T, tl tool, args ...string) error {
	t.Helper()
	cmd := newConverterCommand(tl, "v0.0.0-test", h.deps)
	cmd.SetArgs(args)
	cmd.SetOut(&h.out)
	cmd.SetErr(&h.errOut)
	return cmd.ExecuteContext(context.Background())
}

func TestConvertCommand_MP4DeletesSource(t *testing.T) {
	h := newHarness(t, "/work/clip.webm")

	require.NoError(t, h.run(t, mp4Tool, "/work/clip.webm"))

	require.Len(t, h.conv.jobs, 1)
	assert.Equal(t, "/work/clip.mp4", h.conv.jobs[0].OutputPath)
	assert.Equal(t, 23, h.conv.jobs[0].Params.Quality)

	exists, _ := afero.Exists(h.fs, "/work/clip.mp4")
	assert.True(t, exists)
	exists, _ = afero.Exists(h.fs, "/work/clip.webm")
	assert.False(t, exists)
	assert.Contains(t, h.out.String(), "converted: /work/clip.webm -> /work/clip.mp4")
}

func TestConvertCommand_WebPWidthKeepsSource(t *testing.T) {
	h := newHarness(t, "/work/photo.png")

	require.NoError(t, h.run(t, webpTool, "/work/photo.png", "--width", "100"))

	require.Len(t, h.conv.jobs, 1)
	job := h.conv.jobs[0]
	assert.Equal(t, "/work/photo.webp", job.OutputPath)
	assert.Equal(t, types.FormatParams{Quality: 80, Width: 100}, job.Params)

	exists, _ := afero.Exists(h.fs, "/work/photo.png")
	assert.True(t, exists)
}

func TestConvertCommand_SameFormatGetsSuffix(t *testing.T) {
	h := newHarness(t, "/work/already.webm")

	require.NoError(t, h.run(t, webmTool, "/work/already.webm"))

	require.Len(t, h.conv.jobs, 1)
	assert.Equal(t, "/work/already-optimized.webm", h.conv.jobs[0].OutputPath)
	exists, _ := afero.Exists(h.fs, "/work/already.webm")
	assert.True(t, exists)
}

func TestConvertCommand_QualityOutOfRange(t *testing.T) {
	h := newHarness(t, "/work/clip.webm")

	err := h.run(t, mp4Tool, "/work/clip.webm", "--quality", "99")
	require.Error(t, err)
	assert.ErrorIs(t, err, format.ErrQualityRange)
	assert.Empty(t, h.conv.jobs)
	assert.Zero(t, h.builds)
}

func TestConvertCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		tool tool
		args []string
	}{
		{name: "non-numeric quality", tool: mp4Tool, args: []string{"x.mov", "-q", "high"}},
		{name: "keep and remove", tool: mp4Tool, args: []string{"x.mov", "-k", "-r"}},
		{name: "zero width", tool: webpTool, args: []string{"x.png", "-w", "0"}},
		{name: "negative height", tool: webpTool, args: []string{"x.png", "--height", "-5"}},
		{name: "webm quality below range", tool: webmTool, args: []string{"x.mov", "-q", "10"}},
		{name: "width on video tool", tool: mp4Tool, args: []string{"x.mov", "--width", "100"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "/work/x.mov", "/work/x.png")
			assert.Error(t, h.run(t, tt.tool, tt.args...))
			assert.Empty(t, h.conv.jobs)
		})
	}
}

func TestConvertCommand_RetentionFlags(t *testing.T) {
	tests := []struct {
		name       string
		tool       tool
		src        string
		args       []string
		wantSource bool
	}{
		{name: "mp4 keep", tool: mp4Tool, src: "/work/a.mov", args: []string{"-k"}, wantSource: true},
		{name: "webm remove", tool: webmTool, src: "/work/a.mov", args: []string{"--remove"}, wantSource: false},
		{name: "webp default", tool: webpTool, src: "/work/a.png", wantSource: true},
		{name: "webp remove", tool: webpTool, src: "/work/a.png", args: []string{"-r"}, wantSource: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.src)
			require.NoError(t, h.run(t, tt.tool, append([]string{tt.src}, tt.args...)...))
			exists, _ := afero.Exists(h.fs, tt.src)
			assert.Equal(t, tt.wantSource, exists)
		})
	}
}

func TestConvertCommand_DirectoryAndPattern(t *testing.T) {
	h := newHarness(t,
		"/work/media/a.mov",
		"/work/media/b.mkv",
		"/work/media/c.avi",
		"/work/media/notes.txt",
		"/work/clips/x.mp4",
	)
	h.conv.fail = map[string]bool{"/work/media/b.mkv": true}

	err := h.run(t, webmTool, "/work/media/notes.txt", "-d", "media", "-p", "clips/*.mp4", "-o", "/work/out")
	require.NoError(t, err, "per-file failures do not fail the command")

	var sources []string
	for _, j := range h.conv.jobs {
		sources = append(sources, j.SourcePath)
	}
	assert.Equal(t, []string{
		"/work/clips/x.mp4",
		"/work/media/a.mov",
		"/work/media/b.mkv",
		"/work/media/c.avi",
	}, sources)
	assert.Equal(t, "/work/out/x.webm", h.conv.jobs[0].OutputPath)
	assert.Contains(t, h.out.String(), "skipped: /work/media/notes.txt (unsupported extension .txt)")
	assert.Contains(t, h.out.String(), "Batch summary: 3 converted, 1 skipped, 1 failed (total: 5)")
}

func TestConvertCommand_DirectoryOnly(t *testing.T) {
	h := newHarness(t,
		"/work/media/a.mov",
		"/work/media/b.mkv",
		"/work/media/c.avi",
		"/work/media/d.png",
	)

	require.NoError(t, h.run(t, mp4Tool, "-d", "media", "-k"))

	assert.Len(t, h.conv.jobs, 3)
	assert.Contains(t, h.out.String(), "skipped: /work/media/d.png (unsupported extension .png)")
	assert.Contains(t, h.out.String(), "Batch summary: 3 converted, 1 skipped, 0 failed (total: 4)")
}

func TestConvertCommand_RepeatedInputAfterRemoval(t *testing.T) {
	h := newHarness(t, "/work/clip.webm")

	require.NoError(t, h.run(t, mp4Tool, "/work/clip.webm", "/work/clip.webm"))

	assert.Len(t, h.conv.jobs, 1)
	assert.Contains(t, h.out.String(), "skipped: /work/clip.webm (not found)")
	assert.Contains(t, h.out.String(), "Batch summary: 1 converted, 1 skipped, 0 failed (total: 2)")
}

func TestConvertCommand_NoInputs(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, mp4Tool)
	assert.ErrorIs(t, err, convert.ErrNoInputs)
}

func TestConvertCommand_MissingFFmpeg(t *testing.T) {
	h := newHarness(t, "/work/clip.webm")
	h.convErr = ffmpeg.ErrBinaryNotFound

	err := h.run(t, mp4Tool, "/work/clip.webm")
	assert.ErrorIs(t, err, ffmpeg.ErrBinaryNotFound)
	exists, _ := afero.Exists(h.fs, "/work/clip.webm")
	assert.True(t, exists)
}

func TestConvertCommand_Version(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, mp4Tool, "--version"))
	assert.Contains(t, h.out.String(), "v0.0.0-test")
	assert.Zero(t, h.builds)
}

func TestConvertCommand_ConfigQuality(t *testing.T) {
	h := newHarness(t, "/work/clip.mov")
	require.NoError(t, afero.WriteFile(h.fs, "/cfg/mediakit.yaml", []byte("mp4:\n  quality: 28\n"), 0o644))

	require.NoError(t, h.run(t, mp4Tool, "/work/clip.mov", "--config", "/cfg/mediakit.yaml", "-k"))
	require.Len(t, h.conv.jobs, 1)
	assert.Equal(t, 28, h.conv.jobs[0].Params.Quality)
}

func TestConvertCommand_FlagBeatsConfig(t *testing.T) {
	h := newHarness(t, "/work/clip.mov")
	require.NoError(t, afero.WriteFile(h.fs, "/cfg/mediakit.yaml", []byte("mp4:\n  quality: 28\n"), 0o644))

	require.NoError(t, h.run(t, mp4Tool, "/work/clip.mov", "--config", "/cfg/mediakit.yaml", "-q", "18", "-k"))
	require.Len(t, h.conv.jobs, 1)
	assert.Equal(t, 18, h.conv.jobs[0].Params.Quality)
}

func TestConvertCommand_ConfiguredQualityOutOfRange(t *testing.T) {
	h := newHarness(t, "/work/clip.mov")
	require.NoError(t, afero.WriteFile(h.fs, "/cfg/mediakit.yaml", []byte("webm:\n  quality: 50\n"), 0o644))

	err := h.run(t, webmTool, "/work/clip.mov", "--config", "/cfg/mediakit.yaml")
	assert.ErrorIs(t, err, format.ErrQualityRange)
	assert.Empty(t, h.conv.jobs)
}
