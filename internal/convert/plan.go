// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/mediakit/internal/format"
	"github.com/pdiddy/mediakit/pkg/types"
)

// optimizedSuffix is appended to the stem when re-encoding into the source's
// own format without an output directory.
const optimizedSuffix = "-optimized"

// PlannedItem is one candidate path with either a job or a skip reason.
type PlannedItem struct {
	Candidate string

	// Job is nil when the candidate is skipped.
	Job *types.ConversionJob

	SkipReason string
}

// DeriveOutputPath computes where a source is written:
//
//  1. outputDir/<stem><targetExt> when outputDir is set;
//  2. <dir>/<stem>-optimized<targetExt> when the source already has targetExt;
//  3. <dir>/<stem><targetExt> otherwise.
//
// targetExt includes the dot. The comparison in rule 2 ignores case.
func DeriveOutputPath(source, targetExt, outputDir string) string {
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)

	if outputDir != "" {
		return filepath.Join(outputDir, stem+targetExt)
	}
	if strings.EqualFold(ext, targetExt) {
		return filepath.Join(filepath.Dir(source), stem+optimizedSuffix+targetExt)
	}
	return filepath.Join(filepath.Dir(source), stem+targetExt)
}

// PlanItem checks one candidate against the filesystem as it is now and
// builds its job. A candidate is skipped when it does not exist, is a
// directory, has an extension the format does not accept, or would be
// written over itself.
func PlanItem(fsys afero.Fs, candidate string, f format.Format, req types.BatchRequest) PlannedItem {
	item := PlannedItem{Candidate: candidate}
	if reason := checkEligible(fsys, candidate, f); reason != "" {
		item.SkipReason = reason
		return item
	}

	out := DeriveOutputPath(candidate, f.Ext, req.OutputDir)
	if samePath(out, candidate) {
		item.SkipReason = "output would overwrite source"
		return item
	}

	item.Job = &types.ConversionJob{
		SourcePath: candidate,
		OutputPath: out,
		Params:     req.Params,
	}
	return item
}

func checkEligible(fsys afero.Fs, path string, f format.Format) string {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "not found"
		}
		return err.Error()
	}
	if info.IsDir() {
		return "is a directory"
	}
	if !f.Accepts(path) {
		ext := filepath.Ext(path)
		if ext == "" {
			return "no file extension"
		}
		return "unsupported extension " + strings.ToLower(ext)
	}
	return ""
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
