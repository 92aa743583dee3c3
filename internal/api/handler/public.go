package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sampark/sampark/internal/api/models"
	"github.com/sampark/sampark/internal/engine"
)

type registerRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
}

// Register accepts a self-service registration.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and email are required"})
		return
	}

	user, err := h.engine.Register(c.Request.Context(), engine.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Organization: req.Organization,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":             "Registration submitted successfully",
		"registration_number": user.RegistrationNumber,
	})
}

type loginRequest struct {
	RegistrationNumber string `json:"registration_number"`
	Password           string `json:"password"`
}

// Login exchanges a registration number and password for an access token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, user, err := h.engine.Login(c.Request.Context(), req.RegistrationNumber, req.Password)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token: token,
		User:  models.ToUser(user, h.config.Gravatar),
	})
}

// Scan returns the public profile behind a badge.
func (h *Handler) Scan(c *gin.Context) {
	user, err := h.engine.Scan(c.Request.Context(), c.Param("registration_number"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ToProfile(user, h.config.Gravatar))
}

// Themes returns the theme aggregate, or the participants of one theme when ?theme= is set.
// The participant list requires a valid token.
func (h *Handler) Themes(c *gin.Context) {
	theme := c.Query("theme")
	if theme == "" {
		counts, err := h.engine.ThemeCounts(c.Request.Context())
		if err != nil {
			respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, models.ToThemeCounts(counts))
		return
	}

	if _, ok := h.engine.VerifyToken(c.GetHeader("Authorization")); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	users, err := h.engine.ThemeParticipants(c.Request.Context(), theme)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ThemeParticipants{
		Theme:        theme,
		Participants: models.ToUsers(users, h.config.Gravatar),
	})
}
