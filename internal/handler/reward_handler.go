package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// RewardHandler handles reward catalog, claiming and eligibility endpoints.
type RewardHandler struct {
	service *service.RewardService
	metrics *service.MetricsService
}

// NewRewardHandler constructs a reward handler. metrics may be nil.
func NewRewardHandler(svc *service.RewardService, metrics *service.MetricsService) *RewardHandler {
	return &RewardHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Create reward
// @Tags Rewards
// @Accept json
// @Produce json
// @Param payload body models.CreateRewardRequest true "Reward payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rewards [post]
func (h *RewardHandler) Create(c *gin.Context) {
	var req models.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	reward, err := h.service.Create(c.Request.Context(), familyID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reward)
}

// List godoc
// @Summary List the family's rewards
// @Tags Rewards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rewards [get]
func (h *RewardHandler) List(c *gin.Context) {
	rewards, err := h.service.List(c.Request.Context(), familyID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rewards, nil)
}

// Update godoc
// @Summary Update reward
// @Tags Rewards
// @Accept json
// @Produce json
// @Param id path string true "Reward ID"
// @Param payload body models.UpdateRewardRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rewards/{id} [put]
func (h *RewardHandler) Update(c *gin.Context) {
	var req models.UpdateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	reward, err := h.service.Update(c.Request.Context(), familyID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reward, nil)
}

// Delete godoc
// @Summary Delete reward
// @Tags Rewards
// @Produce json
// @Param id path string true "Reward ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rewards/{id} [delete]
func (h *RewardHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), familyID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Claim godoc
// @Summary Claim a reward for a child
// @Tags Rewards
// @Produce json
// @Param id path string true "Child ID"
// @Param rewardID path string true "Reward ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /children/{id}/rewards/{rewardID}/claim [post]
func (h *RewardHandler) Claim(c *gin.Context) {
	claim, err := h.service.Claim(c.Request.Context(), familyID(c), c.Param("id"), c.Param("rewardID"))
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordClaim("rejected")
		}
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordClaim("granted")
	}
	response.Created(c, claim)
}

// Eligibility godoc
// @Summary List reward eligibility for a child
// @Tags Rewards
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/rewards/eligibility [get]
func (h *RewardHandler) Eligibility(c *gin.Context) {
	eligibility, err := h.service.Eligibility(c.Request.Context(), familyID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligibility, nil)
}

// Stats godoc
// @Summary Reward statistics for a child
// @Tags Rewards
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/rewards/stats [get]
func (h *RewardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), familyID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Progress godoc
// @Summary Progress toward the next reward
// @Tags Rewards
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/rewards/progress [get]
func (h *RewardHandler) Progress(c *gin.Context) {
	progress, err := h.service.Progress(c.Request.Context(), familyID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
