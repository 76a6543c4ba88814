package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type moodRepository interface {
	Create(ctx context.Context, mood *models.Mood) error
	ListSince(ctx context.Context, childID string, since time.Time) ([]models.Mood, error)
}

// MoodService records and lists child mood log entries.
type MoodService struct {
	repo      moodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMoodService constructs the service.
func NewMoodService(repo moodRepository, validate *validator.Validate, logger *zap.Logger) *MoodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoodService{repo: repo, validator: validate, logger: logger}
}

// Record logs a mood for today.
func (s *MoodService) Record(ctx context.Context, childID string, req models.RecordMoodRequest) (*models.Mood, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mood payload")
	}

	now := time.Now().UTC()
	mood := &models.Mood{
		ChildID:    childID,
		Mood:       req.Mood,
		Note:       req.Note,
		RecordedOn: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	if err := s.repo.Create(ctx, mood); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record mood")
	}
	return mood, nil
}

// History lists the child's moods within the trailing number of days.
func (s *MoodService) History(ctx context.Context, childID string, days int) ([]models.Mood, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	moods, err := s.repo.ListSince(ctx, childID, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list moods")
	}
	return moods, nil
}
