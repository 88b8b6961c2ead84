package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/droste/internal/utils"
)

// Source is one discovered input image.
type Source struct {
	Path string // as found on disk
	Rel  string // relative to the argument it was found under
}

// DiscoverOptions controls which files Discover returns.
type DiscoverOptions struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// Discover expands files and directories into supported images. Explicit file
// arguments are kept even when their extension is unsupported so the render
// step reports them; directory entries are filtered.
func Discover(args []string, opts DiscoverOptions) ([]Source, error) {
	var sources []Source
	seen := make(map[string]bool)
	add := func(s Source) {
		abs, err := filepath.Abs(s.Path)
		if err != nil {
			abs = s.Path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		sources = append(sources, s)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if shouldIncludeFile(arg, opts) {
				add(Source{Path: arg, Rel: filepath.Base(arg)})
			}
			continue
		}

		found, err := discoverInDirectory(arg, opts)
		if err != nil {
			return nil, err
		}
		for _, s := range found {
			add(s)
		}
	}
	return sources, nil
}

func discoverInDirectory(dir string, opts DiscoverOptions) ([]Source, error) {
	var found []Source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !utils.IsSupportedImage(path) || !shouldIncludeFile(path, opts) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		found = append(found, Source{Path: path, Rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Rel < found[j].Rel })
	return found, nil
}

// shouldIncludeFile applies exclude patterns first, then include patterns.
func shouldIncludeFile(path string, opts DiscoverOptions) bool {
	if matchesAnyPattern(path, opts.ExcludePatterns) {
		return false
	}
	if len(opts.IncludePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, opts.IncludePatterns)
}

// matchesAnyPattern matches glob patterns against the base name.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
