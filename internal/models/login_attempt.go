package models

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	LOGIN_ATTEMPT_OUTCOME_RECOGNIZED     = "login_attempt_outcome_recognized"
	LOGIN_ATTEMPT_OUTCOME_NOT_RECOGNIZED = "login_attempt_outcome_not_recognized"
)

type LoginAttempt struct {
	gorm.Model
	UserID     *uint64
	Outcome    string
	Distance   float64
	Considered int
}

func (loginAttempt *LoginAttempt) BeforeCreate(tx *gorm.DB) error {
	if loginAttempt.Outcome != "" {
		return nil
	}

	if loginAttempt.UserID == nil {
		loginAttempt.Outcome = LOGIN_ATTEMPT_OUTCOME_NOT_RECOGNIZED
		return nil
	}

	var usersCount int64
	err := tx.Model(&User{}).Where("id = ?", *loginAttempt.UserID).Count(&usersCount).Error
	if err != nil {
		return fmt.Errorf("LoginAttempt,BeforeCreate: %w", err)
	}
	if usersCount == 0 {
		return fmt.Errorf("LoginAttempt,BeforeCreate: user %d does not exist", *loginAttempt.UserID)
	}

	loginAttempt.Outcome = LOGIN_ATTEMPT_OUTCOME_RECOGNIZED
	return nil
}
