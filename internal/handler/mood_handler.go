package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// MoodHandler handles daily mood endpoints.
type MoodHandler struct {
	service  *service.MoodService
	children *service.ChildService
}

// NewMoodHandler constructs a mood handler.
func NewMoodHandler(svc *service.MoodService, children *service.ChildService) *MoodHandler {
	return &MoodHandler{service: svc, children: children}
}

// Record godoc
// @Summary Record today's mood for a child
// @Tags Moods
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body models.RecordMoodRequest true "Mood payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/moods [post]
func (h *MoodHandler) Record(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	var req models.RecordMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	mood, err := h.service.Record(c.Request.Context(), childID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mood)
}

// History godoc
// @Summary List a child's recent moods
// @Tags Moods
// @Produce json
// @Param id path string true "Child ID"
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/moods [get]
func (h *MoodHandler) History(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	moods, err := h.service.History(c.Request.Context(), childID, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, moods, nil)
}
