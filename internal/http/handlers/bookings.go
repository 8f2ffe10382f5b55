package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roundrobin/backend/internal/models"
)

type CreateBookingRequest struct {
	RecordID        string    `json:"record_id" validate:"required"`
	UserID          string    `json:"user_id" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	Notes           string    `json:"notes"`
}

// @Summary Book a meeting
// @Description Validate the slot against the live calendar, create the provider event, and persist the booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param booking body CreateBookingRequest true "booking"
// @Success 201 {object} models.Booking
// @Failure 409 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	duration := h.DefaultDuration
	if req.DurationMinutes > 0 {
		duration = time.Duration(req.DurationMinutes) * time.Minute
	}

	booking, err := h.Bookings.CreateBooking(c.Request.Context(), req.RecordID, req.UserID, req.ScheduledAt.UTC(), duration, req.Notes)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// @Summary List bookings
// @Tags bookings
// @Produce json
// @Param status query string false "filter by status"
// @Param user_id query string false "filter by user"
// @Param record_id query string false "filter by record"
// @Success 200 {object} map[string]any
// @Router /api/bookings [get]
func (h *Handler) BookingsList(c *gin.Context) {
	bookings, err := h.Store.ListBookings(c.Request.Context(), c.Query("status"), c.Query("user_id"), c.Query("record_id"), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// @Summary Get a booking with its timeline
// @Tags bookings
// @Produce json
// @Param id path string true "booking id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/bookings/{id} [get]
func (h *Handler) BookingDetails(c *gin.Context) {
	booking, err := h.Store.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	events, err := h.Store.ListBookingEvents(c.Request.Context(), booking.ID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if events == nil {
		events = []models.BookingEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking, "events": events})
}

type UpdateBookingRequest struct {
	Status  string `json:"status" validate:"omitempty,oneof=completed cancelled no_show"`
	Reason  string `json:"reason"`
	Outcome string `json:"outcome"`
}

// @Summary Update a booking's status or outcome
// @Description Move a scheduled booking to completed, cancelled, or no_show, or set an outcome on a completed one
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "booking id"
// @Param body body UpdateBookingRequest true "update"
// @Success 200 {object} models.Booking
// @Failure 409 {object} map[string]any
// @Router /api/bookings/{id} [patch]
func (h *Handler) UpdateBooking(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if req.Status == "" && req.Outcome == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Nothing to update", nil)
		return
	}

	var booking models.Booking
	var err error
	if req.Status != "" {
		booking, err = h.Bookings.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status, req.Reason)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
	}
	if req.Outcome != "" {
		booking, err = h.Bookings.SetOutcome(c.Request.Context(), c.Param("id"), req.Outcome)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, booking)
}

type RescheduleRequest struct {
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
}

// @Summary Reschedule a booking
// @Description Book a replacement slot and mark the original as rescheduled
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "booking id"
// @Param body body RescheduleRequest true "new slot"
// @Success 201 {object} models.Booking
// @Failure 409 {object} map[string]any
// @Router /api/bookings/{id}/reschedule [post]
func (h *Handler) RescheduleBooking(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	booking, err := h.Bookings.Reschedule(c.Request.Context(), c.Param("id"), req.ScheduledAt.UTC(), duration)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// @Summary Flag overdue scheduled bookings as no-shows
// @Tags bookings
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/bookings/detect-no-shows [post]
func (h *Handler) DetectNoShows(c *gin.Context) {
	flagged, err := h.Bookings.DetectNoShows(c.Request.Context(), h.NoShowGrace)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": flagged})
}
