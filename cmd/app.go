package main

import (
	"gorm.io/gorm"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/config"
	"github.com/amirhossein5/faceauth/internal/dbconnection"
	"github.com/amirhossein5/faceauth/internal/faceauth"
	"github.com/amirhossein5/faceauth/internal/logger"
	"github.com/amirhossein5/faceauth/internal/match"
	"github.com/amirhossein5/faceauth/internal/recognizer"
	"github.com/amirhossein5/faceauth/internal/store"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *gorm.DB
	store *store.Store

	recognizer *recognizer.Recognizer
	service    *faceauth.Service
}

// newApp opens the database and builds the face auth service. The dlib
// models are only loaded with withModels set; without them the service can
// manage stored enrollments but not look at images.
func newApp(withModels bool) (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel)

	db, err := dbconnection.OpenSQLite(cfg.Database.DSN, log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, db: db, store: store.New(db)}

	var detector biometric.FaceDetector
	var embedder biometric.FaceEmbedder
	if withModels {
		a.recognizer, err = recognizer.New(cfg.Models.Dir, cfg.Models.UseCNN, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		detector, embedder = a.recognizer, a.recognizer
	}

	engine := match.NewEngine(cfg.Match.Threshold, log)
	a.service = faceauth.New(detector, embedder, a.store, engine, log)
	return a, nil
}

func (a *app) Close() {
	if a.recognizer != nil {
		a.recognizer.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Warn("failed to close database", "error", err.Error())
		}
	}
}
