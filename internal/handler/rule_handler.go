package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// RuleHandler handles family rule and violation endpoints.
type RuleHandler struct {
	service  *service.RuleService
	children *service.ChildService
}

// NewRuleHandler constructs a rule handler.
func NewRuleHandler(svc *service.RuleService, children *service.ChildService) *RuleHandler {
	return &RuleHandler{service: svc, children: children}
}

// Create godoc
// @Summary Create rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body models.CreateRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	var req models.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	rule, err := h.service.Create(c.Request.Context(), familyID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// List godoc
// @Summary List the family's rules
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.service.List(c.Request.Context(), familyID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Delete godoc
// @Summary Delete rule
// @Tags Rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rules/{id} [delete]
func (h *RuleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), familyID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordViolation godoc
// @Summary Record a rule violation for a child
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body models.RecordViolationRequest true "Violation payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/violations [post]
func (h *RuleHandler) RecordViolation(c *gin.Context) {
	var req models.RecordViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	violation, err := h.service.RecordViolation(c.Request.Context(), familyID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, violation)
}

// ListViolations godoc
// @Summary List a child's rule violations
// @Tags Rules
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/violations [get]
func (h *RuleHandler) ListViolations(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	violations, err := h.service.ListViolations(c.Request.Context(), childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, violations, nil)
}
