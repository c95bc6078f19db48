package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"brandforge/api_calendar/internal/calendar"
	"brandforge/api_calendar/internal/research"
	"brandforge/api_calendar/internal/store"
	"brandforge/api_calendar/pkg/logging"
)

type CalendarHandler struct {
	pipeline PipelineRunner
	runs     RunReader
	logger   logging.Logger
	metrics  *CalendarMetrics
}

func NewCalendarHandler(pipeline PipelineRunner, runs RunReader, logger logging.Logger, metrics *CalendarMetrics) *CalendarHandler {
	return &CalendarHandler{
		pipeline: pipeline,
		runs:     runs,
		logger:   logger,
		metrics:  metrics,
	}
}

type generateRequest struct {
	WeekStart    string `json:"weekStart"`
	Timezone     string `json:"timezone"`
	DurationDays int    `json:"durationDays"`
}

// Generate runs the full calendar pipeline for a research job.
// POST /research-jobs/:id/content-calendar
func (h *CalendarHandler) Generate(c *gin.Context) {
	jobID := c.Param("id")

	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.metrics.IncRun("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid request format",
			})
			return
		}
	}

	opts := calendar.PipelineOptions{
		Timezone:     req.Timezone,
		DurationDays: req.DurationDays,
	}
	if req.WeekStart != "" {
		weekStart, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			h.metrics.IncRun("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "weekStart must be formatted YYYY-MM-DD",
			})
			return
		}
		opts.WeekStart = weekStart
	}

	result, err := h.pipeline.Run(c.Request.Context(), jobID, opts)
	if err != nil {
		if errors.Is(err, research.ErrJobNotFound) {
			h.metrics.IncRun("not_found")
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Research job not found",
			})
			return
		}
		h.metrics.IncRun("error")
		h.logger.WithFields(logging.Fields{
			"research_job_id": jobID,
			"error":           err.Error(),
		}).Error("Calendar generation failed")

		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Calendar generation failed",
		})
		return
	}

	h.metrics.IncRun("success")
	if result.Diagnostics.Degraded() {
		h.metrics.IncDegraded()
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"run":     result,
	})
}

// GetLatest returns the strongest stored calendar for a research job,
// optionally filtered to one week.
// GET /research-jobs/:id/content-calendar?weekStart=YYYY-MM-DD
func (h *CalendarHandler) GetLatest(c *gin.Context) {
	jobID := c.Param("id")
	weekStart := c.Query("weekStart")

	if weekStart != "" {
		if _, err := time.Parse("2006-01-02", weekStart); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "weekStart must be formatted YYYY-MM-DD",
			})
			return
		}
	}

	run, err := h.runs.GetLatestRun(c.Request.Context(), jobID, weekStart)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "No calendar found for this research job",
			})
			return
		}
		h.logger.WithFields(logging.Fields{
			"research_job_id": jobID,
			"error":           err.Error(),
		}).Error("Failed to load calendar")

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load calendar",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"run":     run,
	})
}

// ListRuns returns all runs for a research job, newest first.
// GET /research-jobs/:id/content-calendar/runs
func (h *CalendarHandler) ListRuns(c *gin.Context) {
	jobID := c.Param("id")

	runs, err := h.runs.ListRuns(c.Request.Context(), jobID)
	if err != nil {
		h.logger.WithFields(logging.Fields{
			"research_job_id": jobID,
			"error":           err.Error(),
		}).Error("Failed to list calendar runs")

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to list calendar runs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"runs":    runs,
	})
}
