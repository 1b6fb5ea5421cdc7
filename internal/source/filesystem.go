package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FilesystemSource lists documents from a local directory, filtered by
// extension. Walk order is normalized to sorted relative paths so repeated
// ingestion runs produce the same corpus order.
type FilesystemSource struct {
	dir        string
	extensions []string
}

// NewFilesystemSource creates a source over dir. extensions filter which
// files are listed (empty = all); entries include the leading dot.
func NewFilesystemSource(dir string, extensions []string) *FilesystemSource {
	return &FilesystemSource{dir: dir, extensions: extensions}
}

// List walks the directory recursively and returns one ref per matching file.
// Name is the path relative to the source root.
func (s *FilesystemSource) List(ctx context.Context) ([]DocumentRef, error) {
	var refs []DocumentRef
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Skip hidden directories (e.g. .git) but keep walking the root.
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchExtension(path, s.extensions) {
			return nil
		}
		rel, relErr := filepath.Rel(s.dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		refs = append(refs, DocumentRef{Name: rel, ID: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", s.dir, err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// Fetch reads the document bytes from disk.
func (s *FilesystemSource) Fetch(ctx context.Context, ref DocumentRef) ([]byte, error) {
	data, err := os.ReadFile(ref.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.Name, err)
	}
	return data, nil
}

// matchExtension reports whether path has one of the given extensions
// (case-insensitive). Empty extensions matches everything.
func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
