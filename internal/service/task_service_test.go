package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type mockTaskRepo struct {
	tasks map[string]models.Task
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	task.ID = "new-task"
	task.Active = true
	if m.tasks == nil {
		m.tasks = make(map[string]models.Task)
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if t, ok := m.tasks[id]; ok {
		task := t
		return &task, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTaskRepo) ListByParent(ctx context.Context, parentID string, activeOnly bool) ([]models.Task, error) {
	var tasks []models.Task
	for _, t := range m.tasks {
		if t.ParentID == parentID && (!activeOnly || t.Active) {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task) error {
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id string) error {
	delete(m.tasks, id)
	return nil
}

type mockCompletionRepo struct {
	completed   []models.TaskCompletion
	completeErr error
	uncompleted []string
}

func (m *mockCompletionRepo) ListForDay(ctx context.Context, childID string, dueDate time.Time) ([]models.TaskCompletion, error) {
	return m.completed, nil
}

func (m *mockCompletionRepo) Complete(ctx context.Context, completion *models.TaskCompletion, reason string) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	completion.ID = "new-completion"
	completion.CompletedAt = time.Now().UTC()
	m.completed = append(m.completed, *completion)
	return nil
}

func (m *mockCompletionRepo) Uncomplete(ctx context.Context, childID, taskID string, dueDate time.Time, reason string) error {
	m.uncompleted = append(m.uncompleted, taskID)
	return nil
}

func newTaskFixture() (*TaskService, *mockTaskRepo, *mockCompletionRepo) {
	tasks := &mockTaskRepo{tasks: map[string]models.Task{
		"task-1": {ID: "task-1", ParentID: "par-1", Label: "Faire le lit", Points: 10, Active: true},
		"task-2": {ID: "task-2", ParentID: "par-1", Label: "Ranger", Points: 5, Active: false},
	}}
	completions := &mockCompletionRepo{}
	children := &mockChildReader{children: map[string]models.Child{
		"child-1": {ID: "child-1", ParentID: "par-1", Name: "Emma"},
	}}
	svc := NewTaskService(tasks, completions, children, nil, nil, nil)
	return svc, tasks, completions
}

func TestTaskCompleteDefaultsToToday(t *testing.T) {
	svc, _, completions := newTaskFixture()

	completion, err := svc.Complete(context.Background(), "par-1", "child-1", "task-1", models.CompleteTaskRequest{})
	require.NoError(t, err)
	assert.Equal(t, 10, completion.PointsAwarded)

	today := time.Now().UTC()
	expected := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	assert.Equal(t, expected, completion.DueDate)
	require.Len(t, completions.completed, 1)
}

func TestTaskCompleteExplicitDueDate(t *testing.T) {
	svc, _, _ := newTaskFixture()

	completion, err := svc.Complete(context.Background(), "par-1", "child-1", "task-1", models.CompleteTaskRequest{DueDate: "2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), completion.DueDate)
}

func TestTaskCompleteInactiveTaskRejected(t *testing.T) {
	svc, _, completions := newTaskFixture()

	_, err := svc.Complete(context.Background(), "par-1", "child-1", "task-2", models.CompleteTaskRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, completions.completed)
}

func TestTaskCompleteDuplicatePassthrough(t *testing.T) {
	svc, _, completions := newTaskFixture()
	completions.completeErr = appErrors.ErrDuplicateCompletion

	_, err := svc.Complete(context.Background(), "par-1", "child-1", "task-1", models.CompleteTaskRequest{})
	require.ErrorIs(t, err, appErrors.ErrDuplicateCompletion)
}

func TestTaskCompleteForeignTaskRejected(t *testing.T) {
	svc, _, completions := newTaskFixture()

	_, err := svc.Complete(context.Background(), "par-2", "child-1", "task-1", models.CompleteTaskRequest{})
	require.Error(t, err)
	assert.Empty(t, completions.completed)
}

func TestTaskUncomplete(t *testing.T) {
	svc, _, completions := newTaskFixture()

	err := svc.Uncomplete(context.Background(), "par-1", "child-1", "task-1", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"task-1"}, completions.uncompleted)
}
