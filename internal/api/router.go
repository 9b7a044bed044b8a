// Package api exposes the submission and status services over HTTP. It is
// routing glue only; all behavior lives in the services it wraps.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/status"
	"github.com/enterprise-voice/tts-service/internal/submit"
	"github.com/enterprise-voice/tts-service/internal/voice"
)

// Server bundles the services behind the HTTP surface.
type Server struct {
	submit *submit.Service
	status *status.Service
	store  core.JobStore
	log    *logger.Logger
}

// NewServer creates a Server.
func NewServer(submitService *submit.Service, statusService *status.Service, store core.JobStore, log *logger.Logger) *Server {
	return &Server{submit: submitService, status: statusService, store: store, log: log}
}

// Router builds the gin engine. outputDir, when set, is served statically
// under /output for completed artifacts.
func (s *Server) Router(outputDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if outputDir != "" {
		router.Static("/output", outputDir)
	}

	v1 := router.Group("/api/v1")
	v1.POST("/speech", s.handleSpeech)
	v1.POST("/pdf/convert", s.handlePDFConvert)
	v1.POST("/batch/convert", s.handleBatchConvert)
	v1.GET("/jobs/:jobID", s.handleJobStatus)
	v1.GET("/voices", s.handleVoices)
	v1.GET("/analytics", s.handleAnalytics)
	v1.GET("/health", s.handleHealth)

	return router
}

func (s *Server) handleSpeech(c *gin.Context) {
	var req submit.TextRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	receipt, err := s.submit.SubmitText(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  receipt.JobID,
		"status":  receipt.Status,
		"message": "Job queued successfully",
	})
}

func (s *Server) handlePDFConvert(c *gin.Context) {
	var req submit.DocumentRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	receipt, err := s.submit.SubmitDocument(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  receipt.JobID,
		"status":  receipt.Status,
		"message": "PDF conversion job queued successfully",
	})
}

func (s *Server) handleBatchConvert(c *gin.Context) {
	var req submit.BatchRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	receipt, err := s.submit.SubmitBatch(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"batch_id":    receipt.BatchID,
		"job_ids":     receipt.JobIDs,
		"total_items": len(receipt.JobIDs),
		"message":     "Batch jobs queued successfully",
	})
}

func (s *Server) handleJobStatus(c *gin.Context) {
	response, err := s.status.Lookup(c.Request.Context(), c.Param("jobID"))
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleVoices(c *gin.Context) {
	voices := voice.All()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(voices),
		"voices":  voices,
	})
}

// handleAnalytics reports the accumulated counters. Values come from the
// store only; nothing is fabricated.
func (s *Server) handleAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	stats := gin.H{}

	for _, name := range []string{core.CounterTotalJobs, core.CounterCompletedJobs, core.CounterFailedJobs} {
		value, err := s.store.Counter(ctx, name)
		if err != nil {
			s.writeError(c, err)

			return
		}

		stats[name] = value
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stats":     stats,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	// A counter read doubles as a backend liveness probe.
	_, err := s.store.Counter(c.Request.Context(), core.CounterTotalJobs)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"store":  "disconnected",
			"error":  err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"store":     "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeError(c *gin.Context, err error) {
	if vErr, ok := core.AsValidation(err); ok {
		body := gin.H{"error": vErr.Message}
		if len(vErr.Choices) > 0 {
			body["available_voices"] = vErr.Choices
		}

		c.JSON(http.StatusBadRequest, body)

		return
	}

	if errors.Is(err, core.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})

		return
	}

	s.log.Error("Request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
