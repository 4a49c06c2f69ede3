// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuality(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		quality int
		wantErr bool
	}{
		{name: "mp4 lower bound", format: MP4, quality: 0},
		{name: "mp4 upper bound", format: MP4, quality: 51},
		{name: "mp4 above range", format: MP4, quality: 99, wantErr: true},
		{name: "mp4 negative", format: MP4, quality: -1, wantErr: true},
		{name: "webm lower bound", format: WebM, quality: 15},
		{name: "webm below range", format: WebM, quality: 14, wantErr: true},
		{name: "webm upper bound", format: WebM, quality: 35},
		{name: "webm above range", format: WebM, quality: 36, wantErr: true},
		{name: "webp full range", format: WebP, quality: 100},
		{name: "webp above range", format: WebP, quality: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.ValidateQuality(tt.quality)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrQualityRange)
				assert.Contains(t, err.Error(), tt.format.Name)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		format Format
		path   string
		want   bool
	}{
		{MP4, "clip.webm", true},
		{MP4, "CLIP.MOV", true},
		{MP4, "clip.mp4", true},
		{MP4, "photo.png", false},
		{MP4, "noext", false},
		{WebM, "dir.with.dots/clip.mkv", true},
		{WebP, "photo.PNG", true},
		{WebP, "photo.jpeg", true},
		{WebP, "clip.mp4", false},
	}

	for _, tt := range tests {
		t.Run(tt.format.Name+"/"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.Accepts(tt.path))
		})
	}
}

func TestScans(t *testing.T) {
	for _, f := range []Format{MP4, WebM, WebP} {
		for _, ext := range f.SourceExts {
			assert.True(t, f.Scans("item"+ext), "%s scans its own source %s", f.Name, ext)
		}
	}

	assert.True(t, MP4.Scans("photo.PNG"), "other media is picked up and skipped later")
	assert.True(t, WebP.Scans("clip.mov"))
	assert.False(t, MP4.Scans("notes.txt"))
	assert.False(t, WebP.Scans("noext"))
}

func TestResizable(t *testing.T) {
	assert.False(t, MP4.Resizable())
	assert.False(t, WebM.Resizable())
	assert.True(t, WebP.Resizable())
}

func TestRetentionDefaults(t *testing.T) {
	assert.False(t, MP4.KeepByDefault, "mp4 removes sources by default")
	assert.True(t, WebM.KeepByDefault)
	assert.True(t, WebP.KeepByDefault)
}
