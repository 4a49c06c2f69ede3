// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data shared by the mediakit tools: configuration,
// conversion jobs, and their outcomes.
package types

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatParams carries the encoder knobs of one batch.
type FormatParams struct {
	// Quality is CRF for video targets and libwebp quality for images.
	Quality int `json:"quality" yaml:"quality"`

	// Width and Height bound the output in pixels; 0 means unbounded.
	// Only the image target honours them.
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// BatchRequest is built once from process input and not modified afterwards.
type BatchRequest struct {
	// Inputs are literal paths in the order given.
	Inputs []string `json:"inputs" yaml:"inputs"`

	// Pattern is an optional glob matched under the working directory.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Dir is an optional directory scanned recursively.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// OutputDir overrides the directory outputs are written to.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	// KeepOriginal retains sources after a successful conversion.
	KeepOriginal bool `json:"keep_original" yaml:"keep_original"`

	Params FormatParams `json:"params" yaml:"params"`
}

// ConversionJob is one source-to-destination unit handed to a converter.
type ConversionJob struct {
	SourcePath string       `json:"source_path" yaml:"source_path"`
	OutputPath string       `json:"output_path" yaml:"output_path"`
	Params     FormatParams `json:"params" yaml:"params"`
}

// SizeStats describes a finished conversion when the converter can report it.
type SizeStats struct {
	SourceBytes int64 `json:"source_bytes" yaml:"source_bytes"`
	OutputBytes int64 `json:"output_bytes" yaml:"output_bytes"`

	// Width and Height are the output dimensions, 0 when unknown.
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// Ratio returns output size over source size, or 0 for an empty source.
func (s SizeStats) Ratio() float64 {
	if s.SourceBytes <= 0 {
		return 0
	}
	return float64(s.OutputBytes) / float64(s.SourceBytes)
}

// Saved returns the fraction of bytes saved, negative when the output grew.
func (s SizeStats) Saved() float64 {
	if s.SourceBytes <= 0 {
		return 0
	}
	return 1 - s.Ratio()
}

// String renders sizes for report lines, e.g. "12 MB -> 4.1 MB, -66%".
func (s SizeStats) String() string {
	out := fmt.Sprintf("%s -> %s, %+.0f%%",
		humanize.Bytes(uint64(s.SourceBytes)),
		humanize.Bytes(uint64(s.OutputBytes)),
		-s.Saved()*100)
	if s.Width > 0 && s.Height > 0 {
		out += fmt.Sprintf(", %dx%d", s.Width, s.Height)
	}
	return out
}

// OutcomeKind tags a JobOutcome.
type OutcomeKind string

const (
	OutcomeConverted OutcomeKind = "converted"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeFailed    OutcomeKind = "failed"
)

// JobOutcome is the single result recorded for one candidate path. Only the
// fields matching Kind are set.
type JobOutcome struct {
	Kind       OutcomeKind
	SourcePath string

	// OutputPath and Stats are set for converted outcomes; Stats may be nil.
	OutputPath string
	Stats      *SizeStats

	// Reason is set for skipped outcomes.
	Reason string

	// Err is set for failed outcomes.
	Err error
}

// Converted builds a successful outcome.
func Converted(source, output string, stats *SizeStats) JobOutcome {
	return JobOutcome{Kind: OutcomeConverted, SourcePath: source, OutputPath: output, Stats: stats}
}

// Skipped builds an outcome for a candidate that never became a job.
func Skipped(source, reason string) JobOutcome {
	return JobOutcome{Kind: OutcomeSkipped, SourcePath: source, Reason: reason}
}

// Failed builds an outcome for a job whose conversion returned an error.
func Failed(source, output string, err error) JobOutcome {
	return JobOutcome{Kind: OutcomeFailed, SourcePath: source, OutputPath: output, Err: err}
}
