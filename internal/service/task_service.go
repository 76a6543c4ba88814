package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type taskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	ListByParent(ctx context.Context, parentID string, activeOnly bool) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

type completionRepository interface {
	ListForDay(ctx context.Context, childID string, dueDate time.Time) ([]models.TaskCompletion, error)
	Complete(ctx context.Context, completion *models.TaskCompletion, reason string) error
	Uncomplete(ctx context.Context, childID, taskID string, dueDate time.Time, reason string) error
}

type taskChildRepository interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

// TaskService manages the task catalog and daily completions. Completing a
// task credits its points; each (child, task, day) completes at most once.
type TaskService struct {
	repo        taskRepository
	completions completionRepository
	children    taskChildRepository
	stats       statsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(repo taskRepository, completions completionRepository, children taskChildRepository, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, completions: completions, children: children, stats: stats, validator: validate, logger: logger}
}

// Create adds a catalog task for the parent.
func (s *TaskService) Create(ctx context.Context, parentID string, req models.CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task := &models.Task{
		ParentID: parentID,
		Label:    req.Label,
		Points:   req.Points,
		Icon:     req.Icon,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// List returns the parent's task catalog.
func (s *TaskService) List(ctx context.Context, parentID string, activeOnly bool) ([]models.Task, error) {
	tasks, err := s.repo.ListByParent(ctx, parentID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Update mutates a catalog task. Changing the point value affects future
// completions only; recorded completions keep their awarded points.
func (s *TaskService) Update(ctx context.Context, parentID, taskID string, req models.UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.ownedTask(ctx, parentID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		task.Label = *req.Label
	}
	if req.Points != nil {
		task.Points = *req.Points
	}
	if req.Icon != nil {
		task.Icon = *req.Icon
	}
	if req.Active != nil {
		task.Active = *req.Active
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a catalog task.
func (s *TaskService) Delete(ctx context.Context, parentID, taskID string) error {
	if _, err := s.ownedTask(ctx, parentID, taskID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

// DayCompletions lists the child's completions for one due date.
func (s *TaskService) DayCompletions(ctx context.Context, parentID, childID string, dueDate string) ([]models.TaskCompletion, error) {
	if _, err := s.ownedChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	day, err := resolveDueDate(dueDate)
	if err != nil {
		return nil, err
	}
	completions, err := s.completions.ListForDay(ctx, childID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completions")
	}
	return completions, nil
}

// Complete marks a task done for a day and credits its points. DueDate
// defaults to today when the request omits it.
func (s *TaskService) Complete(ctx context.Context, parentID, childID, taskID string, req models.CompleteTaskRequest) (*models.TaskCompletion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}

	if _, err := s.ownedChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	task, err := s.ownedTask(ctx, parentID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task is inactive")
	}

	due, err := resolveDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	completion := &models.TaskCompletion{
		ChildID:       childID,
		TaskID:        taskID,
		DueDate:       due,
		PointsAwarded: task.Points,
	}
	if err := s.completions.Complete(ctx, completion, task.Label); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record completion")
	}

	if s.stats != nil {
		s.stats.InvalidateChild(ctx, childID)
	}
	return completion, nil
}

// Uncomplete removes a day's completion and reverses its points, clamping
// the reversal at zero.
func (s *TaskService) Uncomplete(ctx context.Context, parentID, childID, taskID string, dueDate string) error {
	if _, err := s.ownedChild(ctx, parentID, childID); err != nil {
		return err
	}
	task, err := s.ownedTask(ctx, parentID, taskID)
	if err != nil {
		return err
	}

	due, err := resolveDueDate(dueDate)
	if err != nil {
		return err
	}

	if err := s.completions.Uncomplete(ctx, childID, taskID, due, task.Label); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove completion")
	}

	if s.stats != nil {
		s.stats.InvalidateChild(ctx, childID)
	}
	return nil
}

func (s *TaskService) ownedTask(ctx context.Context, parentID, taskID string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch task")
	}
	if task.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "task belongs to another family")
	}
	return task, nil
}

func (s *TaskService) ownedChild(ctx context.Context, parentID, childID string) (*models.Child, error) {
	child, err := s.children.FindByID(ctx, childID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch child")
	}
	if child.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "child belongs to another family")
	}
	return child, nil
}

// resolveDueDate parses a YYYY-MM-DD date, defaulting to today (UTC) when
// empty. The result is truncated to midnight so the UNIQUE constraint keys
// on calendar days.
func resolveDueDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date")
	}
	return day, nil
}
