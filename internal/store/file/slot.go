// Package file persists the collection to a single JSON file on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/MrSnakeDoc/startpage/internal/persist"
)

// Slot stores the collection in one file, replaced atomically on every write.
type Slot struct {
	path string
	perm os.FileMode
}

// NewSlot returns a slot backed by path. The parent directory is created on first write.
func NewSlot(path string) *Slot {
	return &Slot{
		path: path,
		perm: 0o600,
	}
}

// Path returns the backing file path.
func (s *Slot) Path() string { return s.path }

func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persist.ErrEmptySlot
		}
		return nil, fmt.Errorf("failed to read slot file: %w", err)
	}
	return data, nil
}

// Write goes through a temp file in the same directory followed by a rename,
// so a failed write leaves the previous content intact.
func (s *Slot) Write(ctx context.Context, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return classify("create temp file", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return classify("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return classify("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return classify("close temp file", err)
	}
	if err := os.Chmod(tmp.Name(), s.perm); err != nil {
		return fmt.Errorf("failed to chmod slot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return classify("replace slot file", err)
	}
	return nil
}

// classify maps a full disk to persist.ErrQuotaExceeded.
func classify(op string, err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %s: %w", persist.ErrQuotaExceeded, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
