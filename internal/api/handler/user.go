package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sampark/sampark/internal/api/auth"
	"github.com/sampark/sampark/internal/api/models"
	"github.com/sampark/sampark/internal/database"
)

// GetProfile returns the caller's profile with themes.
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.engine.GetProfile(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToProfile(user, h.config.Gravatar))
}

type updateProfileRequest struct {
	Bio       *string   `json:"bio"`
	Interests *string   `json:"interests"`
	LinkedIn  *string   `json:"linkedin"`
	Twitter   *string   `json:"twitter"`
	Themes    *[]string `json:"themes"`
}

// UpdateProfile overwrites the provided fields. Sending themes replaces the whole set.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.engine.UpdateProfile(c.Request.Context(), auth.UserID(c), database.ProfileUpdate{
		Bio:       req.Bio,
		Interests: req.Interests,
		LinkedIn:  req.LinkedIn,
		Twitter:   req.Twitter,
		Themes:    req.Themes,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToProfile(user, h.config.Gravatar))
}

type connectRequest struct {
	ScannedRegistrationNumber string `json:"scanned_registration_number" binding:"required"`
	Notes                     string `json:"notes"`
}

// Connect records a mutual connection with the scanned participant.
func (h *Handler) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scanned_registration_number is required"})
		return
	}

	created, err := h.engine.Connect(c.Request.Context(), auth.UserID(c), req.ScannedRegistrationNumber, req.Notes)
	if err != nil {
		respondError(c, err, "Scanned user not found")
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "Connection already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Connection created successfully"})
}

// Connections lists the caller's connections, newest first.
func (h *Handler) Connections(c *gin.Context) {
	conns, err := h.engine.ListConnections(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToConnections(conns, h.config.Gravatar, h.now()))
}

// Stats returns the caller's connection count, registration number and themes.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToStats(stats))
}
