package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/roundrobin/backend/internal/calendar"
	"github.com/roundrobin/backend/internal/db"
	"github.com/roundrobin/backend/internal/routing"
	"github.com/roundrobin/backend/internal/scheduling"
)

type Handler struct {
	Store           *db.Store
	Engine          *routing.Engine
	Availability    *scheduling.AvailabilityService
	Bookings        *scheduling.BookingService
	Tokens          *scheduling.TokenManager
	Validator       *validator.Validate
	Logger          zerolog.Logger
	AdminKey        string
	DefaultDuration time.Duration
	NoShowGrace     time.Duration
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeServiceError maps domain errors onto the response envelope.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, routing.ErrNoEligibleMember):
		writeError(c, http.StatusConflict, "NO_ELIGIBLE_MEMBER", "No eligible member available in group", nil)
	case routing.IsConfigurationError(err):
		writeError(c, http.StatusBadRequest, "INVALID_CONFIGURATION", err.Error(), nil)
	case errors.Is(err, scheduling.ErrNoCalendar):
		writeError(c, http.StatusConflict, "NO_CALENDAR", "No calendar connected", nil)
	case errors.Is(err, scheduling.ErrSlotConflict):
		writeError(c, http.StatusConflict, "SLOT_CONFLICT", "The requested slot is no longer available", nil)
	case errors.Is(err, scheduling.ErrReasonRequired):
		writeError(c, http.StatusBadRequest, "REASON_REQUIRED", "Cancellation requires a reason", nil)
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, scheduling.ErrOutcomeNotAllowed):
		writeError(c, http.StatusConflict, "OUTCOME_NOT_ALLOWED", "Outcome can only be set on completed bookings", nil)
	case scheduling.IsAuthError(err), errors.Is(err, calendar.ErrAuth):
		writeError(c, http.StatusBadGateway, "CALENDAR_AUTH", "Calendar authorization failed, reconnect required", nil)
	case errors.Is(err, calendar.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "Calendar provider unavailable", nil)
	default:
		h.Logger.Error().Err(err).Msg("request failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
