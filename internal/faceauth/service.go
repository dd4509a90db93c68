// Package faceauth wires face capture, enrollment, matching and the user
// store into the operations the login and enrollment screens need.
package faceauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/codec"
	"github.com/amirhossein5/faceauth/internal/enrollment"
	"github.com/amirhossein5/faceauth/internal/logger"
	"github.com/amirhossein5/faceauth/internal/models"
	"github.com/amirhossein5/faceauth/internal/policy"
	"github.com/amirhossein5/faceauth/internal/store"
)

// Repository is the persistence the service relies on. *store.Store
// implements it.
type Repository interface {
	biometric.ProfileStore
	EnrolledProfiles(ctx context.Context) ([]store.EnrolledRecord, error)
	Enrollment(ctx context.Context, id biometric.UserID) (store.EnrolledRecord, bool, error)
	User(ctx context.Context, id biometric.UserID) (models.User, error)
	RecordLoginAttempt(ctx context.Context, attempt *models.LoginAttempt) error
}

// EnrollmentInfo summarizes the stored profile of a user.
type EnrollmentInfo struct {
	UserID     biometric.UserID `json:"user_id"`
	Enrolled   bool             `json:"enrolled"`
	Samples    int              `json:"samples"`
	EnrolledAt time.Time        `json:"enrolled_at,omitzero"`
}

type Service struct {
	detector biometric.FaceDetector
	embedder biometric.FaceEmbedder
	repo     Repository
	policy   *policy.Policy
	codec    codec.Codec
	logger   *logger.Logger
	now      func() time.Time
}

func New(
	detector biometric.FaceDetector,
	embedder biometric.FaceEmbedder,
	repo Repository,
	matcher policy.Matcher,
	logger *logger.Logger,
) *Service {
	return &Service{
		detector: detector,
		embedder: embedder,
		repo:     repo,
		policy:   policy.New(matcher, logger),
		codec:    codec.Default,
		logger:   logger,
		now:      time.Now,
	}
}

// StartEnrollment opens an enrollment session for an existing user. The
// session closes resources when it ends; on error the caller keeps them.
func (s *Service) StartEnrollment(ctx context.Context, id biometric.UserID, resources io.Closer) (*enrollment.Session, error) {
	if _, err := s.repo.User(ctx, id); err != nil {
		return nil, err
	}

	return enrollment.New(enrollment.Config{
		UserID:    id,
		Detector:  s.detector,
		Embedder:  s.embedder,
		Store:     s.repo,
		Resources: resources,
		Codec:     s.codec,
		Logger:    s.logger,
		Now:       s.now,
	}), nil
}

// Authenticate extracts the probe from frame and authenticates it. A frame
// without a face returns biometric.ErrNoFaceDetected and records nothing.
func (s *Service) Authenticate(ctx context.Context, frame biometric.Frame) (policy.Decision, error) {
	probe, err := biometric.Extract(ctx, s.detector, s.embedder, frame, s.now())
	switch {
	case err == nil:
	case errors.Is(err, biometric.ErrNoFaceDetected), errors.Is(err, biometric.ErrDimensionMismatch):
		return policy.Decision{}, err
	case ctx.Err() != nil:
		return policy.Decision{}, fmt.Errorf("authentication aborted: %w", ctx.Err())
	default:
		return policy.Decision{}, fmt.Errorf("%w: %w", biometric.ErrCapabilityUnavailable, err)
	}

	return s.AuthenticateSample(ctx, probe)
}

// AuthenticateSample matches an already extracted probe against every
// enrolled user and records the attempt.
func (s *Service) AuthenticateSample(ctx context.Context, probe biometric.Sample) (policy.Decision, error) {
	candidates, err := s.candidates(ctx)
	if err != nil {
		return policy.Decision{}, err
	}

	decision := s.policy.Authenticate(probe, candidates)

	attempt := models.LoginAttempt{
		Distance:   decision.Distance,
		Considered: decision.Considered,
	}
	if decision.Recognized {
		id := uint64(decision.UserID)
		attempt.UserID = &id
	}
	if err := s.repo.RecordLoginAttempt(ctx, &attempt); err != nil {
		s.logger.Warn("Face auth: failed to record login attempt",
			"error", err.Error())
	}

	return decision, nil
}

// candidates loads and decodes every stored profile. A profile that fails
// to decode is logged and its user treated as not enrolled.
func (s *Service) candidates(ctx context.Context) ([]policy.Candidate, error) {
	records, err := s.repo.EnrolledProfiles(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]policy.Candidate, 0, len(records))
	for _, record := range records {
		samples, err := s.codec.Decode(record.Embeddings)
		if err != nil {
			s.logger.Warn("Face auth: ignoring undecodable profile",
				"user_id", record.UserID,
				"error", err.Error())
			continue
		}
		if len(samples) == 0 {
			continue
		}

		candidates = append(candidates, policy.Candidate{
			UserID:   record.UserID,
			Eligible: record.Eligible,
			Profile:  biometric.Profile{UserID: record.UserID, Samples: samples},
		})
	}
	return candidates, nil
}

// HasEnrollment reports whether id has a stored profile.
func (s *Service) HasEnrollment(ctx context.Context, id biometric.UserID) (bool, error) {
	encoded, err := s.repo.Load(ctx, id)
	if err != nil {
		return false, err
	}
	return encoded != "", nil
}

// RemoveEnrollment deletes the stored profile of id.
func (s *Service) RemoveEnrollment(ctx context.Context, id biometric.UserID) error {
	if _, err := s.repo.User(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Clear(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Face auth: enrollment removed", "user_id", id)
	return nil
}

// Enrollment describes the stored profile of id.
func (s *Service) Enrollment(ctx context.Context, id biometric.UserID) (EnrollmentInfo, error) {
	if _, err := s.repo.User(ctx, id); err != nil {
		return EnrollmentInfo{}, err
	}

	record, ok, err := s.repo.Enrollment(ctx, id)
	if err != nil {
		return EnrollmentInfo{}, err
	}
	info := EnrollmentInfo{UserID: id}
	if !ok {
		return info, nil
	}

	samples, err := s.codec.Decode(record.Embeddings)
	if err != nil {
		return EnrollmentInfo{}, fmt.Errorf("stored profile of user %d: %w", id, err)
	}

	info.Enrolled = len(samples) > 0
	info.Samples = len(samples)
	info.EnrolledAt = record.EnrolledAt
	return info, nil
}
