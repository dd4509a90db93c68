// Package stream moves camera frames from their source to the consumers that
// need the most recent one.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

var ErrClosed = errors.New("frame stream closed")

// Latest is a single-slot frame handoff. Publishing replaces the held frame,
// so readers always get the newest one and older frames are dropped.
type Latest struct {
	mu      sync.Mutex
	frame   biometric.Frame
	seq     uint64
	updated chan struct{}
	closed  bool
}

func NewLatest() *Latest {
	return &Latest{updated: make(chan struct{})}
}

// Publish makes frame the latest one and wakes every waiting reader.
func (l *Latest) Publish(frame biometric.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.frame = frame
	l.seq++
	close(l.updated)
	l.updated = make(chan struct{})
}

// Current returns the latest frame and whether one was published yet.
func (l *Latest) Current() (biometric.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame, l.seq > 0
}

// Next returns the latest frame, waiting for the first one if nothing was
// published yet.
func (l *Latest) Next(ctx context.Context) (biometric.Frame, error) {
	frame, _, err := l.Wait(ctx, 0)
	return frame, err
}

// Wait returns the first frame newer than sequence number after, together
// with its sequence number.
func (l *Latest) Wait(ctx context.Context, after uint64) (biometric.Frame, uint64, error) {
	for {
		l.mu.Lock()
		frame, seq, updated, closed := l.frame, l.seq, l.updated, l.closed
		l.mu.Unlock()

		if seq > after {
			return frame, seq, nil
		}
		if closed {
			return biometric.Frame{}, seq, ErrClosed
		}

		select {
		case <-updated:
		case <-ctx.Done():
			return biometric.Frame{}, seq, ctx.Err()
		}
	}
}

// Close wakes every reader. Readers still receive frames newer than the
// ones they have seen, then ErrClosed.
func (l *Latest) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.updated)
}
