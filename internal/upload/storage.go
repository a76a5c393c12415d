// Package upload is the bridge between raw file bytes and the chat flow:
// it stores uploaded bytes and hands back a stable URL that a send-file
// event can reference.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jaevor/go-nanoid"
)

// FileStore stores uploaded bytes under a generated name and serves them
// back. The name returned by Save is stable for the process lifetime.
type FileStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Open(name string) (io.ReadCloser, error)
}

// DiskStore is a FileStore writing into a single flat directory. Stored
// names are nanoid-prefixed to avoid collisions while keeping the original
// extension so browsers infer the content type.
type DiskStore struct {
	dir   string
	newID func() string
}

// NewDiskStore creates the directory if needed and returns a DiskStore.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	newID, err := nanoid.Standard(16)
	if err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}
	return &DiskStore{dir: dir, newID: newID}, nil
}

// Save writes the bytes to disk and returns the stored name. The write
// completes before the name is returned, so a URL built from it always
// references durable bytes.
func (s *DiskStore) Save(originalName string, r io.Reader) (string, error) {
	name := s.newID() + filepath.Ext(filepath.Base(originalName))

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	return name, nil
}

// Open returns the stored bytes for name.
func (s *DiskStore) Open(name string) (io.ReadCloser, error) {
	// Strip any path components so a crafted name cannot escape the dir.
	return os.Open(filepath.Join(s.dir, filepath.Base(name)))
}
