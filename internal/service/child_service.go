package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type childRepository interface {
	Create(ctx context.Context, child *models.Child) error
	FindByID(ctx context.Context, id string) (*models.Child, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Child, error)
	Update(ctx context.Context, child *models.Child) error
	Deactivate(ctx context.Context, id string) error
	Balance(ctx context.Context, id string) (*models.PointsBalance, error)
}

// ChildService manages child profiles under a parent account.
type ChildService struct {
	repo      childRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChildService constructs the service.
func NewChildService(repo childRepository, validate *validator.Validate, logger *zap.Logger) *ChildService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChildService{repo: repo, validator: validate, logger: logger}
}

// Create adds a child profile for the parent.
func (s *ChildService) Create(ctx context.Context, parentID string, req models.CreateChildRequest) (*models.Child, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child payload")
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash pin")
	}

	child := &models.Child{
		ParentID:  parentID,
		Name:      req.Name,
		Avatar:    req.Avatar,
		BirthYear: req.BirthYear,
		PINHash:   string(pinHash),
	}
	if err := s.repo.Create(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create child")
	}
	return child, nil
}

// Get fetches one child scoped to the parent.
func (s *ChildService) Get(ctx context.Context, parentID, childID string) (*models.Child, error) {
	return s.ownedChild(ctx, parentID, childID)
}

// List returns the parent's children.
func (s *ChildService) List(ctx context.Context, parentID string) ([]models.Child, error) {
	children, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	return children, nil
}

// Update mutates profile attributes.
func (s *ChildService) Update(ctx context.Context, parentID, childID string, req models.UpdateChildRequest) (*models.Child, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child payload")
	}

	child, err := s.ownedChild(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		child.Name = *req.Name
	}
	if req.Avatar != nil {
		child.Avatar = *req.Avatar
	}
	if req.BirthYear != nil {
		child.BirthYear = req.BirthYear
	}
	if req.PIN != nil {
		pinHash, err := bcrypt.GenerateFromPassword([]byte(*req.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash pin")
		}
		child.PINHash = string(pinHash)
	}

	if err := s.repo.Update(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update child")
	}
	return child, nil
}

// Delete soft-deletes a child profile.
func (s *ChildService) Delete(ctx context.Context, parentID, childID string) error {
	if _, err := s.ownedChild(ctx, parentID, childID); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, childID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete child")
	}
	return nil
}

// Balance reads the child's current spendable and saved totals.
func (s *ChildService) Balance(ctx context.Context, parentID, childID string) (*models.PointsBalance, error) {
	if _, err := s.ownedChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	balance, err := s.repo.Balance(ctx, childID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read balance")
	}
	return balance, nil
}

func (s *ChildService) ownedChild(ctx context.Context, parentID, childID string) (*models.Child, error) {
	child, err := s.repo.FindByID(ctx, childID)
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
