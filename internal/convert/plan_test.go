// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mediakit/internal/format"
	"github.com/pdiddy/mediakit/pkg/types"
)

func TestDeriveOutputPath(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		targetExt string
		outputDir string
		want      string
	}{
		{
			name:      "extension replaced in place",
			source:    "/videos/clip.webm",
			targetExt: ".mp4",
			want:      "/videos/clip.mp4",
		},
		{
			name:      "same format gets optimized suffix",
			source:    "/videos/already.webm",
			targetExt: ".webm",
			want:      "/videos/already-optimized.webm",
		},
		{
			name:      "same format ignores case",
			source:    "/videos/LOUD.WEBM",
			targetExt: ".webm",
			want:      "/videos/LOUD-optimized.webm",
		},
		{
			name:      "output directory wins over suffix rule",
			source:    "/videos/already.webm",
			targetExt: ".webm",
			outputDir: "/out",
			want:      "/out/already.webm",
		},
		{
			name:      "output directory with relative source",
			source:    "nested/photo.png",
			targetExt: ".webp",
			outputDir: "converted",
			want:      "converted/photo.webp",
		},
		{
			name:      "relative source without directory",
			source:    "photo.png",
			targetExt: ".webp",
			want:      "photo.webp",
		},
		{
			name:      "only last extension replaced",
			source:    "/a/archive.tar.mov",
			targetExt: ".mp4",
			want:      "/a/archive.tar.mp4",
		},
		{
			name:      "no extension",
			source:    "/a/raw",
			targetExt: ".mp4",
			want:      "/a/raw.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveOutputPath(tt.source, tt.targetExt, tt.outputDir)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, DeriveOutputPath(tt.source, tt.targetExt, tt.outputDir), "derivation must be stable")
		})
	}
}

func TestDeriveOutputPath_NeverOverwritesSource(t *testing.T) {
	for _, f := range []format.Format{format.MP4, format.WebM, format.WebP} {
		for _, ext := range f.SourceExts {
			src := "/media/item" + ext
			assert.NotEqual(t, src, DeriveOutputPath(src, f.Ext, ""), "%s from %s", f.Name, ext)
		}
	}
}

func TestPlanItem(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "/work/a.png", "/work/B.JPG", "/work/readme.md", "/work/raw")
	require.NoError(t, fsys.MkdirAll("/work/folder.png", 0o755))

	req := types.BatchRequest{Params: types.FormatParams{Quality: 80, Width: 100}}
	var items []PlannedItem
	for _, c := range []string{
		"/work/a.png",
		"/work/missing.png",
		"/work/readme.md",
		"/work/folder.png",
		"/work/B.JPG",
		"/work/raw",
	} {
		items = append(items, PlanItem(fsys, c, format.WebP, req))
	}

	require.Len(t, items, 6)

	require.NotNil(t, items[0].Job)
	assert.Equal(t, types.ConversionJob{
		SourcePath: "/work/a.png",
		OutputPath: "/work/a.webp",
		Params:     types.FormatParams{Quality: 80, Width: 100},
	}, *items[0].Job)

	assert.Nil(t, items[1].Job)
	assert.Equal(t, "not found", items[1].SkipReason)

	assert.Nil(t, items[2].Job)
	assert.Equal(t, "unsupported extension .md", items[2].SkipReason)

	assert.Nil(t, items[3].Job)
	assert.Equal(t, "is a directory", items[3].SkipReason)

	require.NotNil(t, items[4].Job)
	assert.Equal(t, "/work/B.webp", items[4].Job.OutputPath)

	assert.Equal(t, "no file extension", items[5].SkipReason)
}

func TestPlanItem_OutputDirOverSource(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "/work/clip.mp4")

	item := PlanItem(fsys, "/work/clip.mp4", format.MP4, types.BatchRequest{OutputDir: "/work"})
	assert.Nil(t, item.Job)
	assert.Equal(t, "output would overwrite source", item.SkipReason)
}

func TestPlanItem_SeesCurrentFilesystem(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "/work/clip.mov")
	req := types.BatchRequest{Params: types.FormatParams{Quality: 23}}

	require.NotNil(t, PlanItem(fsys, "/work/clip.mov", format.MP4, req).Job)

	require.NoError(t, fsys.Remove("/work/clip.mov"))
	item := PlanItem(fsys, "/work/clip.mov", format.MP4, req)
	assert.Nil(t, item.Job)
	assert.Equal(t, "not found", item.SkipReason)
}
