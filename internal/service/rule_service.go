package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type ruleRepository interface {
	Create(ctx context.Context, rule *models.Rule) error
	FindByID(ctx context.Context, id string) (*models.Rule, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Rule, error)
	Delete(ctx context.Context, id string) error
	RecordViolation(ctx context.Context, violation *models.RuleViolation, penalty int, reason string) error
	ListViolations(ctx context.Context, childID string) ([]models.RuleViolation, error)
}

type ruleChildRepository interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

// RuleService manages family rules and records violations. A violation
// deducts the rule's penalty from the child's balance, clamped at zero; the
// violation row records what was actually deducted.
type RuleService struct {
	repo      ruleRepository
	children  ruleChildRepository
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRuleService constructs the service.
func NewRuleService(repo ruleRepository, children ruleChildRepository, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *RuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{repo: repo, children: children, stats: stats, validator: validate, logger: logger}
}

// Create adds a rule for the parent.
func (s *RuleService) Create(ctx context.Context, parentID string, req models.CreateRuleRequest) (*models.Rule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	rule := &models.Rule{
		ParentID:      parentID,
		Label:         req.Label,
		PenaltyPoints: req.PenaltyPoints,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}
	return rule, nil
}

// List returns the parent's active rules.
func (s *RuleService) List(ctx context.Context, parentID string) ([]models.Rule, error) {
	rules, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	return rules, nil
}

// Delete deactivates a rule. Past violations keep their recorded deduction.
func (s *RuleService) Delete(ctx context.Context, parentID, ruleID string) error {
	if _, err := s.ownedRule(ctx, parentID, ruleID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	return nil
}

// RecordViolation records a broken rule against a child and deducts the
// penalty, clamped at the child's balance.
func (s *RuleService) RecordViolation(ctx context.Context, parentID, childID string, req models.RecordViolationRequest) (*models.RuleViolation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid violation payload")
	}

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

	rule, err := s.ownedRule(ctx, parentID, req.RuleID)
	if err != nil {
		return nil, err
	}

	violation := &models.RuleViolation{
		ChildID: childID,
		RuleID:  rule.ID,
		Note:    req.Note,
	}
	if err := s.repo.RecordViolation(ctx, violation, rule.PenaltyPoints, rule.Label); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record violation")
	}

	if s.stats != nil {
		s.stats.InvalidateChild(ctx, childID)
	}
	s.logger.Info("rule violation recorded",
		zap.String("child_id", childID),
		zap.String("rule_id", rule.ID),
		zap.Int("deducted", violation.PointsDeducted),
	)
	return violation, nil
}

// ListViolations returns the child's violation history.
func (s *RuleService) ListViolations(ctx context.Context, childID string) ([]models.RuleViolation, error) {
	violations, err := s.repo.ListViolations(ctx, childID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list violations")
	}
	return violations, nil
}

func (s *RuleService) ownedRule(ctx context.Context, parentID, ruleID string) (*models.Rule, error) {
	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch rule")
	}
	if rule.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "rule belongs to another family")
	}
	return rule, nil
}
