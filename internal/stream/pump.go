package stream

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

// DefaultInterval polls a source at roughly 30 frames per second.
const DefaultInterval = 33 * time.Millisecond

// Pump publishes frames from src into latest at most once per interval until
// ctx is done or src is exhausted. It returns nil when src reports io.EOF.
func Pump(ctx context.Context, src biometric.FrameSource, latest *Latest, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		frame, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		latest.Publish(frame)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
