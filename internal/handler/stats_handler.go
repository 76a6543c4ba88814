package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/service"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// StatsHandler handles dashboard statistics endpoints.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs a stats handler.
func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Child godoc
// @Summary Dashboard statistics for a child
// @Tags Stats
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/stats [get]
func (h *StatsHandler) Child(c *gin.Context) {
	stats, err := h.service.ChildStats(c.Request.Context(), familyID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Family godoc
// @Summary Dashboard statistics for every child in the family
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Family(c *gin.Context) {
	stats, err := h.service.FamilyStats(c.Request.Context(), familyID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
