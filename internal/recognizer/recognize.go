// Package recognizer detects and describes faces with dlib through go-face.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/google/uuid"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/logger"
)

// cacheSize is the number of recent frames whose faces are kept between
// Detect and Embed.
const cacheSize = 4

// Recognizer implements biometric.FaceDetector and biometric.FaceEmbedder.
// go-face finds and describes faces in one pass, so Detect keeps the faces of
// recent frames and Embed reuses them.
type Recognizer struct {
	mu     sync.Mutex
	rec    *face.Recognizer
	useCNN bool
	logger *logger.Logger

	cache []cachedFaces
}

type cachedFaces struct {
	frameID uuid.UUID
	faces   []face.Face
}

// New loads the dlib models from dir, which must hold
// shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat
// and, for the CNN detector, mmod_human_face_detector.dat.
func New(dir string, useCNN bool, logger *logger.Logger) (*Recognizer, error) {
	logger.Info("initializing face-recognition-models...", "dir", dir, "cnn", useCNN)

	rec, err := face.NewRecognizer(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load recognizer: %w", err)
	}

	return &Recognizer{rec: rec, useCNN: useCNN, logger: logger}, nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec != nil {
		r.rec.Close()
		r.rec = nil
	}
	r.cache = nil
	return nil
}

// Detect returns the largest face in frame.
func (r *Recognizer) Detect(ctx context.Context, frame biometric.Frame) (*biometric.Region, error) {
	faces, err := r.faces(ctx, frame)
	if err != nil {
		return nil, err
	}

	i := largest(rectangles(faces))
	if i < 0 {
		return nil, nil
	}
	return &biometric.Region{Rect: faces[i].Rectangle}, nil
}

// Embed returns the descriptor of the face in frame that best overlaps
// region.
func (r *Recognizer) Embed(ctx context.Context, frame biometric.Frame, region biometric.Region) ([]float32, error) {
	faces, err := r.faces(ctx, frame)
	if err != nil {
		return nil, err
	}

	i := bestOverlap(rectangles(faces), region.Rect)
	if i < 0 {
		return nil, biometric.ErrNoFaceDetected
	}

	descriptor := faces[i].Descriptor
	return descriptor[:], nil
}

func (r *Recognizer) faces(ctx context.Context, frame biometric.Frame) ([]face.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil {
		return nil, errors.New("recognizer is closed")
	}

	if faces, ok := r.cached(frame.ID); ok {
		return faces, nil
	}

	var faces []face.Face
	var err error
	if r.useCNN {
		faces, err = r.rec.RecognizeCNN(frame.Data)
	} else {
		faces, err = r.rec.Recognize(frame.Data)
	}

	var loadErr face.ImageLoadError
	if errors.As(err, &loadErr) {
		// a truncated camera frame is not a model failure
		r.logger.Debug("Recognizer: can't decode frame", "frame_id", frame.ID, "error", err.Error())
		faces, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to recognize given buffer: %w", err)
	}

	r.remember(frame.ID, faces)
	return faces, nil
}

func (r *Recognizer) cached(id uuid.UUID) ([]face.Face, bool) {
	if id == uuid.Nil {
		return nil, false
	}
	for _, c := range r.cache {
		if c.frameID == id {
			return c.faces, true
		}
	}
	return nil, false
}

func (r *Recognizer) remember(id uuid.UUID, faces []face.Face) {
	if id == uuid.Nil {
		return
	}
	if len(r.cache) == cacheSize {
		r.cache = r.cache[1:]
	}
	r.cache = append(r.cache, cachedFaces{frameID: id, faces: faces})
}

func rectangles(faces []face.Face) []image.Rectangle {
	rects := make([]image.Rectangle, len(faces))
	for i, f := range faces {
		rects[i] = f.Rectangle
	}
	return rects
}
