package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roundrobin/backend/internal/models"
)

type CreateRecordRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	JobTitle    string `json:"job_title"`
	LeadSource  string `json:"lead_source"`
	Industry    string `json:"industry"`
	Country     string `json:"country"`
	CompanySize string `json:"company_size"`
	Trigger     string `json:"trigger" validate:"omitempty,oneof=contact_created contact_updated form_submitted api_webhook manual"`
}

// @Summary Create a record and route it
// @Description Ingest a record, then run the rule cascade for its trigger
// @Tags records
// @Accept json
// @Produce json
// @Param record body CreateRecordRequest true "record"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/records [post]
func (h *Handler) CreateRecord(c *gin.Context) {
	h.ingestRecord(c, models.TriggerContactCreated)
}

// @Summary Ingest a record from an external webhook
// @Tags records
// @Accept json
// @Produce json
// @Param record body CreateRecordRequest true "record"
// @Success 201 {object} map[string]any
// @Router /api/webhooks/records [post]
func (h *Handler) WebhookRecord(c *gin.Context) {
	h.ingestRecord(c, models.TriggerAPIWebhook)
}

func (h *Handler) ingestRecord(c *gin.Context, defaultTrigger models.TriggerType) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	trigger := defaultTrigger
	if req.Trigger != "" {
		trigger = models.TriggerType(req.Trigger)
	}

	record := models.Record{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		JobTitle:    req.JobTitle,
		LeadSource:  req.LeadSource,
		Industry:    req.Industry,
		Country:     req.Country,
		CompanySize: req.CompanySize,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.InsertRecord(c.Request.Context(), record); err != nil {
		h.writeServiceError(c, err)
		return
	}

	result, err := h.Engine.RouteRecord(c.Request.Context(), record.ID, trigger)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"record":  record,
		"routing": result,
	})
}

// @Summary List records
// @Tags records
// @Produce json
// @Param lead_source query string false "filter by lead source"
// @Param q query string false "search name, email, or company"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} map[string]any
// @Router /api/records [get]
func (h *Handler) RecordsList(c *gin.Context) {
	records, err := h.Store.ListRecords(c.Request.Context(), c.Query("lead_source"), c.Query("q"), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// @Summary Get a record with its current assignment
// @Tags records
// @Produce json
// @Param id path string true "record id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/records/{id} [get]
func (h *Handler) RecordDetails(c *gin.Context) {
	record, err := h.Store.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp := gin.H{"record": record}
	assignment, ok, err := h.Store.LatestAssignment(c.Request.Context(), record.ID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if ok {
		resp["assignment"] = assignment
	}
	c.JSON(http.StatusOK, resp)
}

type RouteRecordRequest struct {
	Trigger string `json:"trigger" validate:"omitempty,oneof=contact_created contact_updated form_submitted api_webhook manual"`
}

// @Summary Re-run the rule cascade for a record
// @Tags routing
// @Accept json
// @Produce json
// @Param id path string true "record id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/records/{id}/route [post]
func (h *Handler) RouteRecord(c *gin.Context) {
	var req RouteRecordRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
		if err := h.Validator.Struct(req); err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
			return
		}
	}
	trigger := models.TriggerManual
	if req.Trigger != "" {
		trigger = models.TriggerType(req.Trigger)
	}

	result, err := h.Engine.RouteRecord(c.Request.Context(), c.Param("id"), trigger)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type RouteToGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// @Summary Route a record to a specific group
// @Description Bypass the cascade and distribute within the named group
// @Tags routing
// @Accept json
// @Produce json
// @Param id path string true "record id"
// @Param body body RouteToGroupRequest true "target group"
// @Success 200 {object} models.Assignment
// @Failure 409 {object} map[string]any
// @Router /api/records/{id}/route-to-group [post]
func (h *Handler) RouteToGroup(c *gin.Context) {
	var req RouteToGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	assignment, err := h.Engine.ManualRouteToGroup(c.Request.Context(), c.Param("id"), req.GroupID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// @Summary List rulesets with their rules
// @Tags routing
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/rulesets [get]
func (h *Handler) RulesetsList(c *gin.Context) {
	rulesets, err := h.Store.ListRulesets(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if rulesets == nil {
		rulesets = []models.Ruleset{}
	}
	c.JSON(http.StatusOK, gin.H{"rulesets": rulesets})
}

// @Summary List distribution groups with members
// @Tags routing
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/groups [get]
func (h *Handler) GroupsList(c *gin.Context) {
	groups, err := h.Store.ListGroups(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}
