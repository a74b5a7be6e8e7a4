package remote

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"habits-go/internal/habits"
)

// FileSystemRemote keeps pushed documents in a directory, typically on a
// removable or network-mounted drive:
//
//	<root>/
//	  <hostID>.json     (exported document)
//	  <hostID>.version  (push version)
type FileSystemRemote struct {
	name string
	root string
}

// NewFileSystemRemote creates a remote rooted at root, creating the directory
// if needed.
func NewFileSystemRemote(name, root string) (*FileSystemRemote, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create remote directory: %w", err)
	}
	return &FileSystemRemote{name: name, root: root}, nil
}

// Name returns the remote name.
func (v *FileSystemRemote) Name() string {
	return v.name
}

// Put writes the document and then its version marker.
func (v *FileSystemRemote) Put(hostID string, r io.Reader, size int64, version int64) error {
	if err := v.writeFile(v.docPath(hostID), r, size); err != nil {
		return err
	}
	data := strconv.FormatInt(version, 10)
	return v.writeFile(v.versionPath(hostID), strings.NewReader(data), int64(len(data)))
}

// Get copies the document for hostID to w.
func (v *FileSystemRemote) Get(hostID string, w io.Writer) error {
	f, err := os.Open(v.docPath(hostID))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("host %s: %w", hostID, habits.ErrRemoteNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	return nil
}

// Version returns the pushed version for hostID, or 0 if there is none.
func (v *FileSystemRemote) Version(hostID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(hostID))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the root is an accessible directory.
func (v *FileSystemRemote) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("remote root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("remote root is not a directory: %s", v.root)
	}
	return nil
}

func (v *FileSystemRemote) docPath(hostID string) string {
	return filepath.Join(v.root, hostID+".json")
}

func (v *FileSystemRemote) versionPath(hostID string) string {
	return filepath.Join(v.root, hostID+".version")
}

// writeFile writes r to destPath through a temp file in the same directory.
func (v *FileSystemRemote) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ habits.Remote = (*FileSystemRemote)(nil)
