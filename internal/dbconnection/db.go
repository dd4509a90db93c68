package dbconnection

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/amirhossein5/faceauth/internal/logger"
	"github.com/amirhossein5/faceauth/internal/models"
)

func Open(dialector gorm.Dialector, config *gorm.Config, log *logger.Logger) (*gorm.DB, error) {
	log.Info("initializing database connection...")

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// OpenSQLite opens the sqlite database at dsn with gorm's own logging
// silenced, and migrates it.
func OpenSQLite(dsn string, log *logger.Logger) (*gorm.DB, error) {
	db, err := Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}, log)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&models.User{})
	if err != nil {
		return fmt.Errorf("%w in users table", err)
	}
	err = db.AutoMigrate(&models.EnrolledFace{})
	if err != nil {
		return fmt.Errorf("%w in enrolled_faces table", err)
	}
	err = db.AutoMigrate(&models.LoginAttempt{})
	if err != nil {
		return fmt.Errorf("%w in login_attempts table", err)
	}

	return nil
}
