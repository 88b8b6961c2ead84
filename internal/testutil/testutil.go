// Package testutil holds helpers shared by droste tests: project-root lookup
// and synthetic source images.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	rootOnce sync.Once
	rootDir  string
	rootErr  error
)

// ProjectRoot returns the directory holding go.mod and cmd/droste, found by
// walking up from this source file. The result is computed once.
func ProjectRoot() (string, error) {
	rootOnce.Do(func() {
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			rootErr = errors.New("no caller information")
			return
		}
		rootDir, rootErr = findRoot(filepath.Dir(file))
	})
	return rootDir, rootErr
}

func findRoot(start string) (string, error) {
	for dir := start; ; dir = filepath.Dir(dir) {
		if FileExists(filepath.Join(dir, "go.mod")) {
			if err := checkLayout(dir); err != nil {
				return "", err
			}
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			return "", fmt.Errorf("no go.mod above %s", start)
		}
	}
}

// checkLayout rejects a go.mod that does not belong to this repository.
func checkLayout(root string) error {
	for _, rel := range []string{"internal", filepath.Join("cmd", "droste")} {
		if !DirExists(filepath.Join(root, rel)) {
			return fmt.Errorf("invalid project root %s: missing %s", root, rel)
		}
	}
	return nil
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists reports whether path is an existing directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
