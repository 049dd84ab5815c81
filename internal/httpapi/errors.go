package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/report"
	"geoattend/internal/settings"
	"geoattend/internal/user"
)

// respondError maps service errors to HTTP status codes. Anything not
// recognised is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case attendance.IsInvalidInput(err), report.IsInvalid(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, user.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
	case isUserInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, settings.ErrNotConfigured):
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attendance settings are not configured"})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isUserInput(err error) bool {
	for _, target := range []error{
		user.ErrInvalidEmail,
		user.ErrInvalidName,
		user.ErrWeakPassword,
		user.ErrInvalidRole,
		user.ErrInvalidPageSize,
		user.ErrInvalidPageToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
