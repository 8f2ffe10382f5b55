package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roundrobin/backend/internal/calendar"
)

// @Summary Get available meeting slots for a user
// @Description Compute open slots within business hours against the user's connected calendar
// @Tags availability
// @Produce json
// @Param id path string true "user id"
// @Param start query string false "window start (RFC3339), defaults to now"
// @Param end query string false "window end (RFC3339), defaults to start+7d"
// @Param duration_minutes query int false "meeting length, defaults to 30"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/users/{id}/availability [get]
func (h *Handler) UserAvailability(c *gin.Context) {
	now := time.Now().UTC()
	start := now
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "start must be RFC3339", err.Error())
			return
		}
		start = t.UTC()
	}
	end := start.AddDate(0, 0, 7)
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "end must be RFC3339", err.Error())
			return
		}
		end = t.UTC()
	}
	if !end.After(start) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "end must be after start", nil)
		return
	}

	duration := h.DefaultDuration
	if m := queryInt(c, "duration_minutes", 0); m > 0 {
		duration = time.Duration(m) * time.Minute
	}

	slots, err := h.Availability.AvailableSlots(c.Request.Context(), c.Param("id"), start, end, duration)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if slots == nil {
		slots = []calendar.TimeSlot{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.Param("id"),
		"start":   start,
		"end":     end,
		"slots":   slots,
	})
}

// @Summary Get a user's calendar connection status
// @Tags availability
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} scheduling.SyncStatus
// @Router /api/users/{id}/calendar/status [get]
func (h *Handler) CalendarStatus(c *gin.Context) {
	status, err := h.Availability.SyncStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
