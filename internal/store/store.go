// Package store persists users, their encoded face profiles and login
// attempts through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/models"
)

var (
	_ biometric.ProfileStore        = (*Store)(nil)
	_ biometric.EligibilityProvider = (*Store)(nil)
)

// EnrolledRecord is one stored profile blob together with its owner.
// Eligible is only filled in by EnrolledProfiles.
type EnrolledRecord struct {
	UserID     biometric.UserID
	Eligible   bool
	Embeddings string
	EnrolledAt time.Time
}

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Load returns the encoded profile of id, or an empty string when the user
// has not enrolled.
func (s *Store) Load(ctx context.Context, id biometric.UserID) (string, error) {
	var face models.EnrolledFace
	err := s.db.WithContext(ctx).Where("user_id = ?", uint64(id)).Take(&face).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load enrolled face: %w", err)
	}
	return face.Embeddings, nil
}

// Save replaces the profile of id with encoded in one transaction. An empty
// encoded profile removes the enrollment.
func (s *Store) Save(ctx context.Context, id biometric.UserID, encoded string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, id); err != nil {
			return err
		}

		err := tx.Unscoped().Where("user_id = ?", uint64(id)).Delete(&models.EnrolledFace{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete previous enrolled face: %w", err)
		}

		if encoded == "" {
			return nil
		}

		face := models.EnrolledFace{
			UserID:     uint64(id),
			Embeddings: encoded,
			EnrolledAt: s.now(),
		}
		if err := tx.Create(&face).Error; err != nil {
			return fmt.Errorf("failed to create enrolled face: %w", err)
		}
		return nil
	})
}

// Clear removes the profile of id. Clearing a user without a profile is not
// an error.
func (s *Store) Clear(ctx context.Context, id biometric.UserID) error {
	err := s.db.WithContext(ctx).Unscoped().Where("user_id = ?", uint64(id)).Delete(&models.EnrolledFace{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete enrolled face: %w", err)
	}
	return nil
}

// Enrollment returns the stored profile row of id.
func (s *Store) Enrollment(ctx context.Context, id biometric.UserID) (EnrolledRecord, bool, error) {
	var face models.EnrolledFace
	err := s.db.WithContext(ctx).Where("user_id = ?", uint64(id)).Take(&face).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EnrolledRecord{}, false, nil
	}
	if err != nil {
		return EnrolledRecord{}, false, fmt.Errorf("failed to load enrolled face: %w", err)
	}
	return toRecord(face), true, nil
}

// EnrolledProfiles returns the stored profile of every existing user
// together with its eligibility, ordered by user id. It reads users and
// profiles in a single joined query so the result is one consistent snapshot.
func (s *Store) EnrolledProfiles(ctx context.Context) ([]EnrolledRecord, error) {
	var users []models.User
	err := s.db.WithContext(ctx).InnerJoins("EnrolledFace").Order("users.id").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load enrolled faces: %w", err)
	}

	records := make([]EnrolledRecord, 0, len(users))
	for _, user := range users {
		record := toRecord(*user.EnrolledFace)
		record.Eligible = eligible(user.Status)
		records = append(records, record)
	}
	return records, nil
}

// IsEligible reports whether the single user id exists and is not blocked.
// Face login reads eligibility in bulk through EnrolledProfiles; this is the
// per-user check used outside a scan.
func (s *Store) IsEligible(ctx context.Context, id biometric.UserID) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "status").Take(&user, uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user status: %w", err)
	}
	return eligible(user.Status), nil
}

// eligible reports whether a user with status may authenticate. Only blocked
// users are refused.
func eligible(status string) bool {
	return status != models.USER_STATUS_BLOCKED
}

// CreateUser inserts an active user.
func (s *Store) CreateUser(ctx context.Context, name, email string) (models.User, error) {
	user := models.User{Name: name, Email: email, Status: models.USER_STATUS_ACTIVE}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// User returns the user with id and its enrolled face, if any.
func (s *Store) User(ctx context.Context, id biometric.UserID) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("EnrolledFace").Take(&user, uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("%w: %d", biometric.ErrUserNotFound, id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Users lists every user with its enrolled face, if any.
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Preload("EnrolledFace").Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetStatus changes the status of id, e.g. to block or unblock it.
func (s *Store) SetStatus(ctx context.Context, id biometric.UserID, status string) error {
	if !models.ValidUserStatus(status) {
		return fmt.Errorf("invalid user status %q", status)
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uint64(id)).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update user status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", biometric.ErrUserNotFound, id)
	}
	return nil
}

// RecordLoginAttempt stores the outcome of a face login.
func (s *Store) RecordLoginAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// LoginAttempts returns the most recent attempts first.
func (s *Store) LoginAttempts(ctx context.Context, limit int) ([]models.LoginAttempt, error) {
	var attempts []models.LoginAttempt
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list login attempts: %w", err)
	}
	return attempts, nil
}

func requireUser(tx *gorm.DB, id biometric.UserID) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", uint64(id)).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %d", biometric.ErrUserNotFound, id)
	}
	return nil
}

func toRecord(face models.EnrolledFace) EnrolledRecord {
	return EnrolledRecord{
		UserID:     biometric.UserID(face.UserID),
		Embeddings: face.Embeddings,
		EnrolledAt: face.EnrolledAt,
	}
}
