package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// ChildHandler handles child profile endpoints.
type ChildHandler struct {
	service *service.ChildService
}

// NewChildHandler constructs a child handler.
func NewChildHandler(svc *service.ChildService) *ChildHandler {
	return &ChildHandler{service: svc}
}

// Create godoc
// @Summary Create child profile
// @Tags Children
// @Accept json
// @Produce json
// @Param payload body models.CreateChildRequest true "Child payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /children [post]
func (h *ChildHandler) Create(c *gin.Context) {
	var req models.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	child, err := h.service.Create(c.Request.Context(), familyID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, child)
}

// List godoc
// @Summary List the family's child profiles
// @Tags Children
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /children [get]
func (h *ChildHandler) List(c *gin.Context) {
	children, err := h.service.List(c.Request.Context(), familyID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children, nil)
}

// Get godoc
// @Summary Get child profile by id
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id} [get]
func (h *ChildHandler) Get(c *gin.Context) {
	child, err := h.service.Get(c.Request.Context(), familyID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, child, nil)
}

// Update godoc
// @Summary Update child profile
// @Tags Children
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body models.UpdateChildRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id} [put]
func (h *ChildHandler) Update(c *gin.Context) {
	var req models.UpdateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	child, err := h.service.Update(c.Request.Context(), familyID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, child, nil)
}

// Delete godoc
// @Summary Deactivate child profile
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id} [delete]
func (h *ChildHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), familyID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Balance godoc
// @Summary Get child point balances
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/balance [get]
func (h *ChildHandler) Balance(c *gin.Context) {
	balance, err := h.service.Balance(c.Request.Context(), familyID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}
