// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pdiddy/mediakit/internal/format"
	"github.com/pdiddy/mediakit/pkg/types"
)

// ErrNoInputs is returned when no mode of a request yields a candidate path.
var ErrNoInputs = errors.New("no input files found")

// Resolver turns the input modes of a BatchRequest into candidate paths.
type Resolver struct {
	Fs afero.Fs

	// Root is the absolute working directory patterns are matched under.
	Root string

	Log zerolog.Logger
}

// Resolve returns literal inputs, then pattern matches, then directory scan
// results, in discovery order. Paths supplied more than once are returned
// more than once. Directory scans only return files whose extension is in
// the format's scan set; eligibility is decided later, job by job.
func (r Resolver) Resolve(req types.BatchRequest, f format.Format) ([]string, error) {
	candidates := make([]string, 0, len(req.Inputs))
	candidates = append(candidates, req.Inputs...)

	if req.Pattern != "" {
		matches, err := r.glob(req.Pattern)
		if err != nil {
			return nil, err
		}
		r.Log.Debug().Str("pattern", req.Pattern).Int("matches", len(matches)).Msg("pattern resolved")
		candidates = append(candidates, matches...)
	}

	if req.Dir != "" {
		found, err := r.scan(req.Dir, f)
		if err != nil {
			return nil, err
		}
		r.Log.Debug().Str("dir", req.Dir).Int("matches", len(found)).Msg("directory scanned")
		candidates = append(candidates, found...)
	}

	if len(candidates) == 0 {
		return nil, ErrNoInputs
	}
	return candidates, nil
}

// glob matches pattern under Root. Directories are dropped; matches are
// returned joined to Root.
func (r Resolver) glob(pattern string) ([]string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(r.Fs, r.Root))
	matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
	if err != nil {
		return nil, fmt.Errorf("matching pattern %q: %w", pattern, err)
	}

	var files []string
	for _, m := range matches {
		info, err := fs.Stat(fsys, m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, filepath.Join(r.Root, filepath.FromSlash(m)))
	}
	return files, nil
}

// scan walks dir in lexical order collecting media files the format scans. A
// missing directory contributes nothing.
func (r Resolver) scan(dir string, f format.Format) ([]string, error) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.Root, dir)
	}

	var files []string
	err := afero.Walk(r.Fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			r.Log.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if !info.IsDir() && f.Scans(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.Log.Warn().Str("dir", dir).Msg("directory does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return files, nil
}
