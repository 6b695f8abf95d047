package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/report"
)

// Metro Manila service area. Submissions outside it are still accepted; the
// validation endpoint only advises the composer.
const (
	serviceAreaLatMin = 14.30
	serviceAreaLatMax = 14.80
	serviceAreaLngMin = 120.90
	serviceAreaLngMax = 121.15
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createReport validates and stores a submission, then runs the advisory
// duplicate check. Detection failure never blocks creation.
func (s *Server) createReport(c *gin.Context) {
	var sub report.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sub.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	created, err := insertReport(c.Request.Context(), s.db, sub)
	if err != nil {
		s.logger.Error("create report", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store report"})
		return
	}

	duplicates, err := s.detector.FindNearby(c.Request.Context(), created.Latitude, created.Longitude, created.ID)
	if err != nil {
		s.logger.Warn("duplicate detection failed",
			logging.Error(err),
			logging.Int64("report_id", created.ID),
		)
		duplicates = nil
	}
	if duplicates == nil {
		duplicates = []report.PotentialDuplicate{}
	}

	s.logger.Info("report created",
		logging.String(logging.FieldEventType, "report_created"),
		logging.Int64("report_id", created.ID),
		logging.String("category", created.Category),
		logging.Int("potential_duplicates", len(duplicates)),
	)
	c.JSON(http.StatusCreated, gin.H{
		"report":               created,
		"potential_duplicates": duplicates,
	})
}

func (s *Server) listReports(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxListLimit)
	}

	reports, err := queryReports(c.Request.Context(), s.db, c.Query("category"), c.Query("status"), limit)
	if err != nil {
		s.logger.Error("list reports", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (s *Server) validateLocation(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat must be a number"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lng must be a number"})
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	valid := lat >= serviceAreaLatMin && lat <= serviceAreaLatMax &&
		lng >= serviceAreaLngMin && lng <= serviceAreaLngMax
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (s *Server) uploadPhoto(c *gin.Context) {
	url, err := s.photos.save(c.ContentType(), c.Request.Body)
	if err != nil {
		s.logger.Error("store photo", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store photo"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
