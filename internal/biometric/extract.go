package biometric

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Extract runs the detector and embedder over frame and returns the
// resulting sample stamped with capturedAt. It returns ErrNoFaceDetected
// when the frame is empty or holds no face, and ErrDimensionMismatch when
// the embedder output is not Dimension long. Capability failures are
// returned wrapped as they are.
func Extract(ctx context.Context, detector FaceDetector, embedder FaceEmbedder, frame Frame, capturedAt time.Time) (Sample, error) {
	if frame.Empty() {
		return Sample{}, ErrNoFaceDetected
	}

	region, err := detector.Detect(ctx, frame)
	if err != nil {
		return Sample{}, fmt.Errorf("face detection failed: %w", err)
	}
	if region == nil {
		return Sample{}, ErrNoFaceDetected
	}

	vector, err := embedder.Embed(ctx, frame, *region)
	if err != nil {
		return Sample{}, fmt.Errorf("face embedding failed: %w", err)
	}
	if len(vector) != Dimension {
		return Sample{}, fmt.Errorf("%w: embedder returned %d values, want %d",
			ErrDimensionMismatch, len(vector), Dimension)
	}

	return Sample{Vector: slices.Clone(vector), CapturedAt: capturedAt}, nil
}
