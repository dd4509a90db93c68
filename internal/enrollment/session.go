// Package enrollment drives the capture of a fixed quota of face samples for
// one user and commits them to the profile store in a single write.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/codec"
	"github.com/amirhossein5/faceauth/internal/logger"
)

// Instructions holds the pose prompt shown before each capture.
var Instructions = [biometric.EnrollmentQuota]string{
	"Look straight at the camera",
	"Turn your head slightly left",
	"Turn your head slightly right",
	"Tilt your head slightly up",
	"Tilt your head slightly down",
}

// Config carries the collaborators of a session.
type Config struct {
	UserID   biometric.UserID
	Detector biometric.FaceDetector
	Embedder biometric.FaceEmbedder
	Store    biometric.ProfileStore
	// Resources is closed exactly once when the session ends, whether it is
	// finished, cancelled or failed.
	Resources io.Closer
	Codec     codec.Codec
	Logger    *logger.Logger
	Now       func() time.Time
}

// CaptureResult is delivered by CaptureAsync.
type CaptureResult struct {
	State State
	Err   error
}

// Snapshot is a serializable view of a session.
type Snapshot struct {
	ID          uuid.UUID        `json:"id"`
	UserID      biometric.UserID `json:"user_id"`
	State       State            `json:"state"`
	Captured    int              `json:"captured"`
	Required    int              `json:"required"`
	Instruction string           `json:"instruction,omitempty"`
	Saved       bool             `json:"saved"`
}

// Session is one enrollment attempt.
type Session struct {
	id     uuid.UUID
	cfg    Config
	logger *logger.Logger

	// captureMu serializes captures and commits; mu guards the fields below
	// it and is never held while a capability runs.
	captureMu sync.Mutex
	mu        sync.Mutex
	state      State
	samples    []biometric.Sample
	saved      bool
	committing bool

	ctx         context.Context
	cancel      context.CancelFunc
	releaseOnce sync.Once
	releaseErr  error
}

// New starts a session awaiting its first sample.
func New(cfg Config) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewWithWriter(io.Discard, 0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      uuid.New(),
		cfg:     cfg,
		logger:  cfg.Logger,
		state:   State{Phase: PhaseAwaitingSample},
		samples: make([]biometric.Sample, 0, biometric.EnrollmentQuota),
		ctx:     ctx,
		cancel:  cancel,
	}

	s.logger.Info("Enrollment session: started",
		"session_id", s.id,
		"user_id", cfg.UserID)

	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) UserID() biometric.UserID {
	return s.cfg.UserID
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the number of captured samples and the quota.
func (s *Session) Progress() (captured, required int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples), biometric.EnrollmentQuota
}

// Instruction returns the pose prompt for the awaited sample, or an empty
// string when no capture is expected.
func (s *Session) Instruction() string {
	return instructionFor(s.State())
}

func instructionFor(state State) string {
	switch state.Phase {
	case PhaseAwaitingSample:
		return Instructions[state.Index]
	case PhaseComplete:
		return "Enrollment complete"
	}
	return ""
}

// Snapshot returns a serializable view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:          s.id,
		UserID:      s.cfg.UserID,
		State:       s.state,
		Captured:    len(s.samples),
		Required:    biometric.EnrollmentQuota,
		Instruction: instructionFor(s.state),
		Saved:       s.saved,
	}
}

// Capture detects and embeds the face in frame and records it as the next
// sample. It returns biometric.ErrNoFaceDetected or
// biometric.ErrDimensionMismatch without changing state, and
// biometric.ErrSessionFinished once the session no longer awaits samples.
// Any other detector or embedder failure fails the session and releases its
// resources.
func (s *Session) Capture(ctx context.Context, frame biometric.Frame) (State, error) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	if state := s.State(); state.Phase != PhaseAwaitingSample {
		return state, biometric.ErrSessionFinished
	}

	captureCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	sample, err := biometric.Extract(captureCtx, s.cfg.Detector, s.cfg.Embedder, frame, s.cfg.Now())

	s.mu.Lock()
	if s.state.Phase != PhaseAwaitingSample {
		state := s.state
		s.mu.Unlock()
		return state, biometric.ErrSessionFinished
	}

	switch {
	case errors.Is(err, biometric.ErrNoFaceDetected), errors.Is(err, biometric.ErrDimensionMismatch):
		state := s.state
		s.mu.Unlock()
		s.logger.Info("Enrollment session: capture rejected",
			"session_id", s.id,
			"user_id", s.cfg.UserID,
			"state", state,
			"error", err.Error())
		return state, err

	case err != nil && ctx.Err() != nil:
		state := s.state
		s.mu.Unlock()
		return state, fmt.Errorf("capture aborted: %w", ctx.Err())

	case err != nil:
		s.state = State{Phase: PhaseFailed}
		s.samples = nil
		state := s.state
		s.mu.Unlock()

		s.logger.Error("Enrollment session: capability failed",
			"session_id", s.id,
			"user_id", s.cfg.UserID,
			"error", err.Error())
		s.release()

		if !errors.Is(err, biometric.ErrCapabilityUnavailable) {
			err = fmt.Errorf("%w: %w", biometric.ErrCapabilityUnavailable, err)
		}
		return state, err
	}

	s.samples = append(s.samples, sample)
	if len(s.samples) == biometric.EnrollmentQuota {
		s.state = State{Phase: PhaseComplete}
	} else {
		s.state = State{Phase: PhaseAwaitingSample, Index: len(s.samples)}
	}
	state := s.state
	s.mu.Unlock()

	s.logger.Debug("Enrollment session: sample captured",
		"session_id", s.id,
		"user_id", s.cfg.UserID,
		"state", state)

	return state, nil
}

// CaptureAsync runs Capture on its own goroutine and delivers the result on
// the returned channel, which receives exactly one value.
func (s *Session) CaptureAsync(ctx context.Context, frame biometric.Frame) <-chan CaptureResult {
	results := make(chan CaptureResult, 1)
	go func() {
		state, err := s.Capture(ctx, frame)
		results <- CaptureResult{State: state, Err: err}
	}()
	return results
}

// Finish encodes the captured samples and replaces the user's profile with
// them. It returns biometric.ErrIncompleteEnrollment before the quota is
// reached and performs no write in that case. The write is bound to both ctx
// and the session lifetime.
func (s *Session) Finish(ctx context.Context) error {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	s.mu.Lock()
	switch {
	case s.saved || s.state.Terminal():
		s.mu.Unlock()
		return biometric.ErrSessionFinished
	case s.state.Phase != PhaseComplete:
		captured := len(s.samples)
		s.mu.Unlock()
		return fmt.Errorf("%w: %d of %d samples captured",
			biometric.ErrIncompleteEnrollment, captured, biometric.EnrollmentQuota)
	}
	samples := slices.Clone(s.samples)
	s.committing = true
	s.mu.Unlock()

	err := s.commit(ctx, samples)

	s.mu.Lock()
	s.committing = false
	if err == nil {
		s.saved = true
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.logger.Info("Enrollment session: profile saved",
		"session_id", s.id,
		"user_id", s.cfg.UserID,
		"samples", len(samples))

	s.release()
	return nil
}

func (s *Session) commit(ctx context.Context, samples []biometric.Sample) error {
	encoded, err := s.cfg.Codec.Encode(samples)
	if err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}

	saveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	if err := s.cfg.Store.Save(saveCtx, s.cfg.UserID, encoded); err != nil {
		s.logger.Error("Enrollment session: failed to save profile",
			"session_id", s.id,
			"user_id", s.cfg.UserID,
			"error", err.Error())
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Cancel abandons the session, discards its samples and releases its
// resources. It may be called from any goroutine, including while a capture
// is running, and is a no-op once the session has ended. A Finish already
// writing the profile is not interrupted; Cancel leaves its outcome alone.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		s.logger.Info("Enrollment session: cancel ignored while saving",
			"session_id", s.id,
			"user_id", s.cfg.UserID)
		return
	}
	if s.saved || s.state.Terminal() {
		s.mu.Unlock()
		s.release()
		return
	}
	s.state = State{Phase: PhaseCancelled}
	s.samples = nil
	s.mu.Unlock()

	s.logger.Info("Enrollment session: cancelled",
		"session_id", s.id,
		"user_id", s.cfg.UserID)

	s.release()
}

// Close cancels an unfinished session and returns the error, if any, from
// releasing its resources. During a running Finish the resources are
// released when the write completes.
func (s *Session) Close() error {
	s.Cancel()
	return s.releaseErr
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.cancel()
		if s.cfg.Resources == nil {
			return
		}
		if err := s.cfg.Resources.Close(); err != nil {
			s.releaseErr = err
			s.logger.Warn("Enrollment session: failed to release resources",
				"session_id", s.id,
				"error", err.Error())
		}
	})
}
