package stream

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

// FileSource yields the contents of image files in order as frames.
type FileSource struct {
	mu    sync.Mutex
	paths []string
	next  int
	loop  bool
}

// NewFileSource returns a source over paths. With loop set it starts over
// after the last file instead of returning io.EOF.
func NewFileSource(paths []string, loop bool) *FileSource {
	return &FileSource{paths: slices.Clone(paths), loop: loop}
}

// NewDirSource returns a source over the JPEG files in dir, sorted by name.
func NewDirSource(dir string, loop bool) (*FileSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no jpeg files in %s", dir)
	}
	return NewFileSource(paths, loop), nil
}

// Len returns the number of files.
func (s *FileSource) Len() int {
	return len(s.paths)
}

// Next reads the next file. It returns io.EOF after the last file unless the
// source loops.
func (s *FileSource) Next(ctx context.Context) (biometric.Frame, error) {
	if err := ctx.Err(); err != nil {
		return biometric.Frame{}, err
	}

	s.mu.Lock()
	if s.next == len(s.paths) && s.loop && len(s.paths) > 0 {
		s.next = 0
	}
	if s.next == len(s.paths) {
		s.mu.Unlock()
		return biometric.Frame{}, io.EOF
	}
	path := s.paths[s.next]
	s.next++
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return biometric.Frame{}, fmt.Errorf("failed to read frame: %w", err)
	}
	return biometric.NewFrame(data), nil
}
