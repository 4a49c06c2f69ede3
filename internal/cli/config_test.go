// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mediakit/pkg/types"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, used, err := loadConfig(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `
ffmpeg:
  binary: /opt/ffmpeg/bin/ffmpeg
webp:
  quality: 65
capture:
  scroll_duration: 5s
  viewport:
    width: 414
`
	require.NoError(t, afero.WriteFile(fs, "/etc/mediakit.yaml", []byte(data), 0o644))

	cfg, used, err := loadConfig(fs, "/etc/mediakit.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/mediakit.yaml", used)

	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpeg.Binary)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.ProbeBinary)
	assert.Equal(t, 65, cfg.WebP.Quality)
	assert.Equal(t, 5*time.Second, cfg.Capture.ScrollDuration)
	assert.Equal(t, 414, cfg.Capture.Viewport.Width)
	assert.Equal(t, 844, cfg.Capture.Viewport.Height)
	assert.Equal(t, 23, cfg.MP4.Quality)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("mp4:\n  quality: 28\n"), 0o644))
	t.Setenv("MEDIAKIT_MP4_QUALITY", "30")
	t.Setenv("MEDIAKIT_CAPTURE_CHROME_PATH", "/usr/bin/chromium")

	cfg, _, err := loadConfig(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.MP4.Quality)
	assert.Equal(t, "/usr/bin/chromium", cfg.Capture.ChromePath)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, _, err := loadConfig(afero.NewMemMapFs(), "/nope.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("mp4: [unclosed\n"), 0o644))

	_, _, err := loadConfig(fs, "/bad.yaml")
	assert.Error(t, err)
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, showConfig(&buf, types.DefaultConfig()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Contains(t, got, "ffmpeg")
	assert.Contains(t, got, "capture")
	assert.Equal(t, 23, got["mp4"].(map[string]any)["quality"])
}

func TestShowConfigFlag(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, webpTool, "--show-config"))
	assert.Contains(t, h.out.String(), "compression_level: 4")
	assert.Zero(t, h.builds)
}
