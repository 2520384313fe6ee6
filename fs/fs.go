// Package fs collects local files for content ingestion. Files are
// matched with doublestar glob patterns (** for recursive matching) and
// returned as content items ready for the backend ingest endpoint.
package fs

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/researchmind/mind"
)

// MaxFileSize is the largest file Collect will read. Larger files are
// skipped rather than failing the whole collection.
const MaxFileSize = 1 << 20 // 1 MiB

// mediaTypes maps file extensions to ingestion media types. Unknown
// extensions fall back to text/plain.
var mediaTypes = map[string]string{
	".md":   "text/markdown",
	".txt":  "text/plain",
	".html": "text/html",
	".csv":  "text/csv",
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// Collect finds files under base matching pattern and reads them into
// content items. Directories, oversize files, and files that are not
// valid UTF-8 text are skipped.
func Collect(base, pattern string) ([]mind.ContentItem, error) {
	if pattern == "" {
		return nil, fmt.Errorf("fs: pattern is required: %w", mind.ErrValidation)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("fs: invalid glob pattern %q: %w", pattern, mind.ErrValidation)
	}

	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("fs: access base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs: base %q is not a directory: %w", base, mind.ErrValidation)
	}

	fsys := os.DirFS(base)
	var items []mind.ContentItem

	err = doublestar.GlobWalk(fsys, pattern, func(path string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if fi.Size() > MaxFileSize {
			return nil
		}
		data, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(path)))
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			return nil
		}
		items = append(items, mind.ContentItem{
			Name:      path,
			MediaType: MediaType(path),
			Text:      string(data),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fs: matching pattern: %w", err)
	}

	return items, nil
}

// MediaType returns the ingestion media type for a file name.
func MediaType(name string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return "text/plain"
}
