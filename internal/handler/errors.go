package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/sweep"
)

const permissionExplanation = "Notifications are turned off. Allow notifications to get reminders before your food expires."

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, ErrorResponse{
		Error:   errType,
		Message: message,
	})
}

// respondDomainError maps a service error onto a status code. Internal failures get a
// generic message; the detail goes to the log.
func respondDomainError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "permission_denied", permissionExplanation)
	case errors.Is(err, domain.ErrCaptureFailure):
		respondError(c, http.StatusUnprocessableEntity, "capture_failed", "The photo could not be read. Please try again.")
	case errors.Is(err, domain.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, domain.ErrNotificationNotFound):
		respondError(c, http.StatusNotFound, "not_found", "reminder not found")
	case errors.Is(err, domain.ErrReminderAlreadyScheduled):
		respondError(c, http.StatusConflict, "already_scheduled", "a reminder is already scheduled for this product")
	case errors.Is(err, sweep.ErrSweepInProgress):
		respondError(c, http.StatusConflict, "sweep_in_progress", "a sweep is already running")
	case errors.Is(err, domain.ErrInvalidProduct), errors.Is(err, domain.ErrInvalidPermission):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrStoreClosed):
		respondError(c, http.StatusServiceUnavailable, "unavailable", "service is shutting down")
	case errors.Is(err, domain.ErrSchedulingFailed):
		slog.ErrorContext(ctx, "reminder delivery failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadGateway, "scheduling_failed", "The reminder could not be scheduled. Please try again later.")
	default:
		slog.ErrorContext(ctx, "request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "internal_error", "Something went wrong. Please try again later.")
	}
}
