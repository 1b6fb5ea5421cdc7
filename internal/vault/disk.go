package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DiskVault archives originals to a local directory. Useful in local preview
// mode when no bucket is configured.
type DiskVault struct {
	dir string
}

// NewDiskVault creates a disk vault rooted at dir.
func NewDiskVault(dir string) *DiskVault {
	return &DiskVault{dir: dir}
}

// Put writes the document bytes to <dir>/<base name>. The directory is
// created on first use.
func (v *DiskVault) Put(ctx context.Context, name string, data []byte) error {
	if err := os.MkdirAll(v.dir, 0755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	target := filepath.Join(v.dir, filepath.Base(name))
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("write vault file: %w", err)
	}
	return nil
}
