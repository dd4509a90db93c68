package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/websocket"

	"github.com/amirhossein5/faceauth/internal/config"
	"github.com/amirhossein5/faceauth/internal/faceauth"
	"github.com/amirhossein5/faceauth/internal/logger"
	"github.com/amirhossein5/faceauth/internal/models"
	"github.com/amirhossein5/faceauth/internal/stream"
)

// UserLister lists users for the API.
type UserLister interface {
	Users(ctx context.Context) ([]models.User, error)
}

// Server serves the camera page, the MJPEG preview, the camera websocket and
// the enrollment API.
type Server struct {
	cfg        config.HTTP
	router     *chi.Mux
	httpServer *http.Server

	service      *faceauth.Service
	users        UserLister
	latest       *stream.Latest
	snapshotPath string
	ignoreFrames bool
	logger       *logger.Logger
}

// Options holds optional server behaviour.
type Options struct {
	// SnapshotPath, when set, receives a copy of every camera frame.
	SnapshotPath string
	// IgnoreCameraFrames drops frames sent over the websocket, leaving the
	// latest-frame slot to another single producer such as a replay pump.
	IgnoreCameraFrames bool
}

func NewServer(
	cfg config.HTTP,
	service *faceauth.Service,
	users UserLister,
	latest *stream.Latest,
	opts Options,
	logger *logger.Logger,
) *Server {
	r := chi.NewRouter()

	s := &Server{
		cfg:          cfg,
		router:       r,
		service:      service,
		users:        users,
		latest:       latest,
		snapshotPath: opts.SnapshotPath,
		ignoreFrames: opts.IgnoreCameraFrames,
		logger:       logger,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chiMiddleware.Recoverer)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.indexPage)
	s.router.Get("/stream", stream.MJPEGHandler(s.latest))
	s.router.Handle("/camera-websocket", websocket.Handler(s.cameraWebsocketHandler))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/users", s.listUsers)
		r.Get("/users/{id}/enrollment", s.getEnrollment)
		r.Delete("/users/{id}/enrollment", s.deleteEnrollment)
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting webserver", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections, wakes the stream readers and waits
// for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down webserver")
	s.latest.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) indexPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.IndexFile)
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chiMiddleware.GetReqID(r.Context()))
		})
	}
}
