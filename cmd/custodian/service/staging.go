package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StagedFile is a scoped temporary copy of an upload. The file on disk
// lives until Release, which every exit path must call; Release is
// idempotent so deferring it alongside explicit cleanup is safe.
type StagedFile struct {
	name string
	path string
	size int64
}

// StageUpload copies the reader into a staging file, enforcing the size
// cap. On any failure the staging file is already gone when the error
// returns.
func StageUpload(name string, r io.Reader, maxBytes int64) (*StagedFile, error) {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid upload file name %q", name)
	}

	path := filepath.Join(os.TempDir(), "custodian-"+uuid.NewString())
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	// Read one byte past the cap so an oversized upload is detectable
	written, err := io.Copy(f, io.LimitReader(r, maxBytes+1))
	closeErr := f.Close()

	if err != nil || closeErr != nil {
		os.Remove(path)
		if err == nil {
			err = closeErr
		}
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	if written > maxBytes {
		os.Remove(path)
		return nil, fmt.Errorf("upload exceeds the %d byte limit", maxBytes)
	}

	return &StagedFile{
		name: base,
		path: path,
		size: written,
	}, nil
}

// Name returns the original upload file name
func (s *StagedFile) Name() string {
	return s.name
}

// Size returns the staged size in bytes
func (s *StagedFile) Size() int64 {
	return s.size
}

// Bytes reads the staged content
func (s *StagedFile) Bytes() ([]byte, error) {
	if s.path == "" {
		return nil, fmt.Errorf("staged file already released")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged upload: %w", err)
	}
	return data, nil
}

// Release removes the staging file. Safe to call more than once.
func (s *StagedFile) Release() {
	if s.path == "" {
		return
	}
	os.Remove(s.path)
	s.path = ""
}
