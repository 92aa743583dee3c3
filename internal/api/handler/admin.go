package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/sampark/sampark/internal/api/auth"
	"github.com/sampark/sampark/internal/api/models"
	"github.com/sampark/sampark/internal/config"
	"github.com/sampark/sampark/internal/engine"
	"github.com/sampark/sampark/internal/scheduler"
)

type AdminHandler struct {
	engine *engine.Engine
	config *config.Config
}

func NewAdmin(eng *engine.Engine, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		engine: eng,
		config: cfg,
	}
}

// PendingRegistrations lists registrations awaiting review.
func (h *AdminHandler) PendingRegistrations(c *gin.Context) {
	users, err := h.engine.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToUsers(users, h.config.Gravatar))
}

// Approve approves a registration and emails the credentials.
func (h *AdminHandler) Approve(c *gin.Context) {
	userID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if _, err := h.engine.Approve(c.Request.Context(), auth.UserID(c), userID); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User approved and credentials sent"})
}

// Reject rejects a registration.
func (h *AdminHandler) Reject(c *gin.Context) {
	userID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if _, err := h.engine.Reject(c.Request.Context(), auth.UserID(c), userID); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User registration rejected"})
}

// Users lists every participant.
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.engine.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToUsers(users, h.config.Gravatar))
}

// DeleteUser removes a participant with their themes and connections.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.engine.DeleteUser(c.Request.Context(), auth.UserID(c), userID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "User deleted",
		"registration_number": user.RegistrationNumber,
	})
}

// Overview returns the dashboard counters.
func (h *AdminHandler) Overview(c *gin.Context) {
	overview, err := h.engine.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToOverview(overview))
}

// History returns recent audit events. ?limit= caps the result.
func (h *AdminHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.engine.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToHistory(events))
}

// Jobs lists the scheduled background jobs.
func (h *AdminHandler) Jobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GetScheduler().GetJobs())
}

// RunJob triggers a background job immediately.
func (h *AdminHandler) RunJob(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.engine.GetScheduler().RunJobNow(jobID); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		log.Error("Failed to trigger job", "id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger job"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Job triggered"})
}

// CacheStats returns hit and miss counters of the application caches.
func (h *AdminHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GetCache().GetStats())
}

// ClearCache drops every cached profile and aggregate. On redis only the
// profile- and theme-counts- keys are deleted.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	h.engine.GetCache().ClearAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}
