package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type piggyBankRepository interface {
	Deposit(ctx context.Context, childID string, amount int) (*models.PiggyBankTransaction, error)
	Withdraw(ctx context.Context, childID string, amount int) (*models.PiggyBankTransaction, error)
	ListTransactions(ctx context.Context, childID string) ([]models.PiggyBankTransaction, error)
}

// PiggyBankService moves points between a child's spendable balance and the
// saved balance. Saved points do not count toward reward affordability until
// withdrawn.
type PiggyBankService struct {
	repo      piggyBankRepository
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPiggyBankService constructs the service.
func NewPiggyBankService(repo piggyBankRepository, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *PiggyBankService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PiggyBankService{repo: repo, stats: stats, validator: validate, logger: logger}
}

// Deposit moves points into savings. Rejected when the spendable balance is
// below the amount.
func (s *PiggyBankService) Deposit(ctx context.Context, childID string, req models.PiggyBankRequest) (*models.PiggyBankTransaction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid piggy bank payload")
	}

	txn, err := s.repo.Deposit(ctx, childID, req.Amount)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deposit points")
	}

	if s.stats != nil {
		s.stats.InvalidateChild(ctx, childID)
	}
	return txn, nil
}

// Withdraw moves saved points back to the spendable balance. Rejected when
// savings are below the amount.
func (s *PiggyBankService) Withdraw(ctx context.Context, childID string, req models.PiggyBankRequest) (*models.PiggyBankTransaction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid piggy bank payload")
	}

	txn, err := s.repo.Withdraw(ctx, childID, req.Amount)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw points")
	}

	if s.stats != nil {
		s.stats.InvalidateChild(ctx, childID)
	}
	return txn, nil
}

// Transactions lists the child's piggy bank history.
func (s *PiggyBankService) Transactions(ctx context.Context, childID string) ([]models.PiggyBankTransaction, error) {
	txns, err := s.repo.ListTransactions(ctx, childID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list piggy bank transactions")
	}
	return txns, nil
}
