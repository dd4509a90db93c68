package models

import (
	"time"

	"gorm.io/gorm"
)

// EnrolledFace holds the encoded face samples of one user. A user has at
// most one row; enrolling again replaces it.
type EnrolledFace struct {
	gorm.Model
	UserID     uint64    `gorm:"uniqueIndex;not null"`
	Embeddings string    `gorm:"type:text;not null"`
	EnrolledAt time.Time `gorm:"not null"`
}
