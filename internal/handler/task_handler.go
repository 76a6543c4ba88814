package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/service"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// TaskHandler handles task catalog and completion endpoints.
type TaskHandler struct {
	service *service.TaskService
	metrics *service.MetricsService
}

// NewTaskHandler constructs a task handler. metrics may be nil.
func NewTaskHandler(svc *service.TaskService, metrics *service.MetricsService) *TaskHandler {
	return &TaskHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body models.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	task, err := h.service.Create(c.Request.Context(), familyID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List godoc
// @Summary List the family's tasks
// @Tags Tasks
// @Produce json
// @Param active query bool false "Only active tasks"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	tasks, err := h.service.List(c.Request.Context(), familyID(c), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Update godoc
// @Summary Update task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body models.UpdateTaskRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	task, err := h.service.Update(c.Request.Context(), familyID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), familyID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Complete godoc
// @Summary Mark a task completed for a child
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param taskID path string true "Task ID"
// @Param payload body models.CompleteTaskRequest false "Completion payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /children/{id}/tasks/{taskID}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	var req models.CompleteTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	completion, err := h.service.Complete(c.Request.Context(), familyID(c), c.Param("id"), c.Param("taskID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCompletion()
	}
	response.Created(c, completion)
}

// Uncomplete godoc
// @Summary Undo a task completion
// @Tags Tasks
// @Produce json
// @Param id path string true "Child ID"
// @Param taskID path string true "Task ID"
// @Param due_date query string false "Completion date (YYYY-MM-DD, defaults to today)"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/tasks/{taskID}/complete [delete]
func (h *TaskHandler) Uncomplete(c *gin.Context) {
	if err := h.service.Uncomplete(c.Request.Context(), familyID(c), c.Param("id"), c.Param("taskID"), c.Query("due_date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DayCompletions godoc
// @Summary List a child's completions for a day
// @Tags Tasks
// @Produce json
// @Param id path string true "Child ID"
// @Param due_date query string false "Day (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/completions [get]
func (h *TaskHandler) DayCompletions(c *gin.Context) {
	completions, err := h.service.DayCompletions(c.Request.Context(), familyID(c), c.Param("id"), c.Query("due_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, completions, nil)
}
