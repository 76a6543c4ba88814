package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// GenerationHandler handles AI-generated content endpoints: riddles,
// catalog suggestions and child behaviour analysis.
type GenerationHandler struct {
	service  *service.GenerationService
	children *service.ChildService
}

// NewGenerationHandler constructs a generation handler.
func NewGenerationHandler(svc *service.GenerationService, children *service.ChildService) *GenerationHandler {
	return &GenerationHandler{service: svc, children: children}
}

// Riddle godoc
// @Summary Generate a riddle
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body models.GenerateRiddleRequest true "Riddle request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/riddle [post]
func (h *GenerationHandler) Riddle(c *gin.Context) {
	var req models.GenerateRiddleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	riddle, err := h.service.GenerateRiddle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, riddle, nil)
}

// SolveRiddle godoc
// @Summary Credit points for a solved riddle
// @Tags Generation
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body models.SolveRiddleRequest true "Solve payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/riddles/solve [post]
func (h *GenerationHandler) SolveRiddle(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	var req models.SolveRiddleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	points, err := h.service.SolveRiddle(c.Request.Context(), childID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"points_awarded": points}, nil)
}

// Suggestions godoc
// @Summary Generate catalog suggestions
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body models.GenerateSuggestionsRequest true "Suggestions request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/suggestions [post]
func (h *GenerationHandler) Suggestions(c *gin.Context) {
	var req models.GenerateSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	suggestions, err := h.service.GenerateSuggestions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"suggestions": suggestions}, nil)
}

// Analyze godoc
// @Summary Analyse a child's recent activity
// @Tags Generation
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /children/{id}/analysis [get]
func (h *GenerationHandler) Analyze(c *gin.Context) {
	childID := c.Param("id")
	parentID := familyID(c)
	if _, err := h.children.Get(c.Request.Context(), parentID, childID); err != nil {
		response.Error(c, err)
		return
	}

	analysis, err := h.service.Analyze(c.Request.Context(), parentID, childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}
