package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fixmybarangay/internal/config"
	"fixmybarangay/internal/dupdetect"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/report"
)

const (
	endpointHealth           = "/healthz"
	endpointReports          = "/api/reports"
	endpointValidateLocation = "/api/locations/validate"
	endpointPhotos           = "/api/photos"

	defaultListLimit = 100
	maxListLimit     = 500
)

// DuplicateFinder locates recent nearby reports for the advisory check.
type DuplicateFinder interface {
	FindNearby(ctx context.Context, lat, lng float64, excludeID int64) ([]report.PotentialDuplicate, error)
}

// Server hosts the backend REST API over a MySQL reports table.
type Server struct {
	cfg      *config.Config
	db       *sql.DB
	detector DuplicateFinder
	photos   *photoStore
	logger   *slog.Logger
	engine   *gin.Engine
	http     *http.Server
}

// New builds a server around an open database handle.
func New(cfg *config.Config, db *sql.DB, logger *slog.Logger) *Server {
	detector := dupdetect.NewDetector(db,
		float64(cfg.Server.DuplicateRadius),
		time.Duration(cfg.Server.DuplicateWindow)*time.Hour,
		logger,
	)
	return newWithDetector(cfg, db, detector, logger)
}

func newWithDetector(cfg *config.Config, db *sql.DB, detector DuplicateFinder, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		detector: detector,
		photos:   newPhotoStore(cfg.Paths.DataDir),
		logger:   logging.NewComponentLogger(logger, "server"),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET(endpointHealth, s.health)
	engine.POST(endpointReports, s.createReport)
	engine.GET(endpointReports, s.listReports)
	engine.GET(endpointValidateLocation, s.validateLocation)
	engine.POST(endpointPhotos, s.uploadPhoto)
	engine.Static("/photos", s.photos.dir)

	s.engine = engine
	return s
}

// Handler exposes the routing tree, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Server.Bind,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.http.ListenAndServe()
	}()

	s.logger.Info("server listening",
		logging.String(logging.FieldEventType, "server_started"),
		logging.String("bind", s.cfg.Server.Bind),
	)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
