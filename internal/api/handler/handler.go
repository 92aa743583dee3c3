package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/sampark/sampark/internal/config"
	"github.com/sampark/sampark/internal/engine"
)

// Handler serves the participant facing endpoints.
type Handler struct {
	engine *engine.Engine
	config *config.Config
	now    func() time.Time
}

func New(eng *engine.Engine, cfg *config.Config) *Handler {
	return &Handler{
		engine: eng,
		config: cfg,
		now:    time.Now,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps engine errors to status codes. notFound overrides the default 404 message.
func respondError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		if notFound == "" {
			notFound = "User not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, engine.ErrDuplicateEmail),
		errors.Is(err, engine.ErrInvalidInput),
		errors.Is(err, engine.ErrSelfConnection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, engine.ErrNotApproved):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account not approved yet"})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseUintParam(val string) (uint, error) {
	id, err := strconv.ParseUint(val, 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
