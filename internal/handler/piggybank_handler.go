package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// PiggyBankHandler handles savings endpoints.
type PiggyBankHandler struct {
	service  *service.PiggyBankService
	children *service.ChildService
}

// NewPiggyBankHandler constructs a piggy bank handler.
func NewPiggyBankHandler(svc *service.PiggyBankService, children *service.ChildService) *PiggyBankHandler {
	return &PiggyBankHandler{service: svc, children: children}
}

// Deposit godoc
// @Summary Move points into the piggy bank
// @Tags PiggyBank
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body models.PiggyBankRequest true "Deposit payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /children/{id}/piggy-bank/deposit [post]
func (h *PiggyBankHandler) Deposit(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	var req models.PiggyBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	tx, err := h.service.Deposit(c.Request.Context(), childID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Withdraw godoc
// @Summary Move saved points back to the spendable balance
// @Tags PiggyBank
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body models.PiggyBankRequest true "Withdraw payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /children/{id}/piggy-bank/withdraw [post]
func (h *PiggyBankHandler) Withdraw(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	var req models.PiggyBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	tx, err := h.service.Withdraw(c.Request.Context(), childID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Transactions godoc
// @Summary List a child's piggy bank transactions
// @Tags PiggyBank
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/piggy-bank/transactions [get]
func (h *PiggyBankHandler) Transactions(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	txs, err := h.service.Transactions(c.Request.Context(), childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txs, nil)
}
