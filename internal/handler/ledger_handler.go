package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// LedgerHandler exposes a child's points history, current snapshot and
// completion streak. The ledger itself is child-scoped, so parent ownership
// is resolved through the child service before anything is read.
type LedgerHandler struct {
	ledger   *service.LedgerService
	streaks  *service.StreakService
	children *service.ChildService
}

// NewLedgerHandler constructs a ledger handler.
func NewLedgerHandler(ledger *service.LedgerService, streaks *service.StreakService, children *service.ChildService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, streaks: streaks, children: children}
}

// History godoc
// @Summary List a child's points history
// @Tags Ledger
// @Produce json
// @Param id path string true "Child ID"
// @Param type query string false "Filter by entry type"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/history [get]
func (h *LedgerHandler) History(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	var filter models.LedgerFilter
	filter.EntryType = c.Query("type")
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	entries, err := h.ledger.History(c.Request.Context(), childID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Snapshot godoc
// @Summary Get a child's ledger snapshot
// @Tags Ledger
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/snapshot [get]
func (h *LedgerHandler) Snapshot(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	snapshot, err := h.ledger.Snapshot(c.Request.Context(), childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Streak godoc
// @Summary Get a child's completion streak
// @Tags Ledger
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/streak [get]
func (h *LedgerHandler) Streak(c *gin.Context) {
	childID := c.Param("id")
	if _, err := h.children.Get(c.Request.Context(), familyID(c), childID); err != nil {
		response.Error(c, err)
		return
	}

	streak, err := h.streaks.Current(c.Request.Context(), childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, streak, nil)
}
