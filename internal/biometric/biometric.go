// Package biometric holds the face-authentication domain types and the
// capabilities the rest of the module consumes.
package biometric

import (
	"context"
	"image"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	// Dimension is the length of every face descriptor produced by the embedder.
	Dimension = 128

	// EnrollmentQuota is the number of samples an enrollment must collect
	// before it can be persisted.
	EnrollmentQuota = 5
)

// UserID identifies the identity that owns a profile.
type UserID uint64

// Sample is a single face descriptor and the time it was captured.
type Sample struct {
	Vector     []float32
	CapturedAt time.Time
}

// Clone returns a copy that shares no memory with s.
func (s Sample) Clone() Sample {
	return Sample{Vector: slices.Clone(s.Vector), CapturedAt: s.CapturedAt}
}

// Profile is the ordered set of enrolled samples for one user.
type Profile struct {
	UserID  UserID
	Samples []Sample
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	samples := make([]Sample, len(p.Samples))
	for i, s := range p.Samples {
		samples[i] = s.Clone()
	}
	return Profile{UserID: p.UserID, Samples: samples}
}

// Frame is one captured camera image.
type Frame struct {
	ID         uuid.UUID
	Data       []byte
	CapturedAt time.Time
}

// NewFrame wraps image bytes into a frame with a fresh id.
func NewFrame(data []byte) Frame {
	return Frame{ID: uuid.New(), Data: data, CapturedAt: time.Now()}
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}

// Region is the bounding box of a face located in a frame.
type Region struct {
	Rect image.Rectangle
}

// FrameSource yields the most recent captured image.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// FaceDetector locates a single face in a frame. A nil region with a nil
// error means no face was found.
type FaceDetector interface {
	Detect(ctx context.Context, frame Frame) (*Region, error)
}

// FaceEmbedder computes the descriptor of the face inside region.
type FaceEmbedder interface {
	Embed(ctx context.Context, frame Frame, region Region) ([]float32, error)
}

// ProfileStore persists encoded profiles keyed by user. Load returns an
// empty string when the user has no enrollment.
type ProfileStore interface {
	Load(ctx context.Context, id UserID) (string, error)
	Save(ctx context.Context, id UserID, encoded string) error
	Clear(ctx context.Context, id UserID) error
}

// EligibilityProvider reports whether a single user may authenticate at all.
// Scans do not call it per candidate; eligibility arrives with the candidate
// snapshot so that a scan reads the store once.
type EligibilityProvider interface {
	IsEligible(ctx context.Context, id UserID) (bool, error)
}
