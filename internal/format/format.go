// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format describes the target formats of the converter tools: the
// output extension, which sources are accepted, the quality range, and
// whether sources are kept by default.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ErrQualityRange is returned when a quality value is outside a format's range.
var ErrQualityRange = errors.New("quality out of range")

// Kind separates video targets from image targets.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// QualityRange is the inclusive range of a format's quality knob.
type QualityRange struct {
	Min int
	Max int
}

// Contains reports whether q lies within the range.
func (r QualityRange) Contains(q int) bool {
	return q >= r.Min && q <= r.Max
}

// Format is a conversion target.
type Format struct {
	// Name is the short identifier used in config keys ("mp4", "webm", "webp").
	Name string

	// Ext is the output extension including the dot.
	Ext string

	Kind Kind

	// QualityName labels the knob in error messages ("CRF" or "quality").
	QualityName string
	Quality     QualityRange

	// SourceExts lists accepted source extensions, lowercase with the dot.
	SourceExts []string

	// ScanExts lists the extensions a directory scan picks up. It is a
	// superset of SourceExts so media the format cannot take is reported
	// as skipped rather than silently passed over.
	ScanExts []string

	// KeepByDefault is the source-retention default when neither --keep nor
	// --remove is given.
	KeepByDefault bool
}

var videoExts = []string{".mp4", ".mov", ".mkv", ".avi", ".webm", ".m4v", ".flv", ".wmv", ".mpg", ".mpeg", ".3gp", ".ts"}

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

var mediaExts = slices.Concat(videoExts, imageExts)

var (
	// MP4 is H.264/AAC in an MP4 container.
	MP4 = Format{
		Name:          "mp4",
		Ext:           ".mp4",
		Kind:          KindVideo,
		QualityName:   "CRF",
		Quality:       QualityRange{Min: 0, Max: 51},
		SourceExts:    videoExts,
		ScanExts:      mediaExts,
		KeepByDefault: false,
	}

	// WebM is VP9/Opus in a WebM container.
	WebM = Format{
		Name:          "webm",
		Ext:           ".webm",
		Kind:          KindVideo,
		QualityName:   "CRF",
		Quality:       QualityRange{Min: 15, Max: 35},
		SourceExts:    videoExts,
		ScanExts:      mediaExts,
		KeepByDefault: true,
	}

	// WebP is a libwebp still (or animated, for GIF sources) image.
	WebP = Format{
		Name:          "webp",
		Ext:           ".webp",
		Kind:          KindImage,
		QualityName:   "quality",
		Quality:       QualityRange{Min: 0, Max: 100},
		SourceExts:    imageExts,
		ScanExts:      mediaExts,
		KeepByDefault: true,
	}
)

// Accepts reports whether path has one of the format's source extensions.
// The comparison ignores case.
func (f Format) Accepts(path string) bool {
	return slices.Contains(f.SourceExts, strings.ToLower(filepath.Ext(path)))
}

// Scans reports whether a directory scan should return path.
func (f Format) Scans(path string) bool {
	return slices.Contains(f.ScanExts, strings.ToLower(filepath.Ext(path)))
}

// Resizable reports whether the format takes a bounding box.
func (f Format) Resizable() bool {
	return f.Kind == KindImage
}

// ValidateQuality returns an error wrapping ErrQualityRange when q is outside
// the format's range.
func (f Format) ValidateQuality(q int) error {
	if !f.Quality.Contains(q) {
		return fmt.Errorf("%w: %s %d for %s must be between %d and %d",
			ErrQualityRange, f.QualityName, q, f.Name, f.Quality.Min, f.Quality.Max)
	}
	return nil
}
