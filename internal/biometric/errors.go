package biometric

import "errors"

var (
	ErrNoFaceDetected        = errors.New("no face detected")
	ErrIncompleteEnrollment  = errors.New("enrollment incomplete")
	ErrSessionFinished       = errors.New("enrollment session finished")
	ErrFormat                = errors.New("malformed face embeddings")
	ErrDimensionMismatch     = errors.New("embedding dimension mismatch")
	ErrCapabilityUnavailable = errors.New("face capability unavailable")
	ErrUserNotFound          = errors.New("user not found")
)
