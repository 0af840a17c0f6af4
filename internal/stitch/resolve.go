// Package stitch turns a list of PDF files into one merged document: input
// resolution, label pages, page assembly, output and statistics.
package stitch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/novvoo/pdfstitch/internal/config"
)

// Input selects the documents to merge. Files, when non-empty, take
// precedence over directory mode.
type Input struct {
	Files   []string
	Dir     string // Default: current working directory.
	Pattern string // Default: "*.pdf".
}

// Resolve turns in into the ordered list of paths to process. Explicit
// files keep the caller's order with repeated paths dropped; directory
// matches are sorted lexicographically. Every returned path is an existing
// regular file. All failures are *ConfigError.
func Resolve(in Input) ([]string, error) {
	var paths []string
	if len(in.Files) > 0 {
		paths = dedupe(in.Files)
	} else {
		var err error
		if paths, err = glob(in.Dir, in.Pattern); err != nil {
			return nil, err
		}
	}

	if len(paths) == 0 {
		return nil, &ConfigError{Msg: "no PDF files found to process"}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("file %q does not exist", p), Err: err}
		}
		if !info.Mode().IsRegular() {
			return nil, &ConfigError{Msg: fmt.Sprintf("%q is not a regular file", p)}
		}
	}
	return paths, nil
}

func dedupe(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		key := filepath.Clean(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func glob(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = config.DefaultPattern
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &ConfigError{Msg: "cannot determine current directory", Err: err}
		}
		dir = wd
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("directory %q does not exist", dir), Err: err}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Msg: fmt.Sprintf("%q is not a directory", dir)}
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("invalid pattern %q", pattern), Err: err}
	}

	// Glob may match directories; only regular files are inputs.
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
