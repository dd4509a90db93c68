package models

import "gorm.io/gorm"

const (
	USER_STATUS_ACTIVE   = "active"
	USER_STATUS_INACTIVE = "inactive"
	USER_STATUS_BLOCKED  = "blocked"
)

type User struct {
	gorm.Model
	Name          string         `gorm:"not null"`
	Email         string         `gorm:"index"`
	Status        string         `gorm:"not null;default:active"`
	EnrolledFace  *EnrolledFace  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	LoginAttempts []LoginAttempt `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

// ValidUserStatus reports whether status is one of the known user statuses.
func ValidUserStatus(status string) bool {
	switch status {
	case USER_STATUS_ACTIVE, USER_STATUS_INACTIVE, USER_STATUS_BLOCKED:
		return true
	}
	return false
}
