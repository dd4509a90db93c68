package stream

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

// UpdateImage replaces the file at path with the frame's image. The file is
// written next to path and renamed over it, so readers never see a partial
// image.
func UpdateImage(path string, frame biometric.Frame) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".frame-*.jpeg")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(f.Name())

	_, err = f.Write(frame.Data)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
