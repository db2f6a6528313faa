package expense

import (
	"log/slog"
	"time"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/recurring"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepositoryAPI defines data access for expense occurrences.
type RepositoryAPI interface {
	Create(e *Expense) error
	GetByID(storeID, id string) (*Expense, error)
	List(f Filter, limit, offset int) ([]*Expense, error)
	Update(e *Expense) error
	SumAmount(f Filter) (decimal.Decimal, int64, error)
	InsertIfAbsent(e *Expense) (bool, error)
	GetBySourcePeriod(templateID, periodKey string) (*Expense, error)
}

// Service handles expense reads, one-off creation and aggregation. It never
// creates template-sourced rows; that is the materializer's job.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateOneOffExpense(storeID string, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("expense validation failed", "error", err, "store_id", storeID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	now := time.Now()
	e := &Expense{
		ID:         uuid.NewString(),
		StoreID:    storeID,
		Category:   dto.Category,
		Amount:     dto.Amount,
		Currency:   dto.Currency,
		OccurredAt: recurring.DateOnly(dto.OccurredAt),
		Notes:      dto.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(e); err != nil {
		s.logger.Error("failed to create expense", "error", err, "store_id", storeID)
		return nil, err
	}

	s.logger.Info("expense created",
		"expense_id", e.ID,
		"store_id", storeID,
		"amount", e.Amount.String(),
		"category", e.Category)

	return e, nil
}

func (s *Service) GetExpense(storeID, id string) (*Expense, error) {
	e, err := s.repo.GetByID(storeID, id)
	if err != nil {
		s.logger.Error("failed to get expense", "error", err, "expense_id", id, "store_id", storeID)
		return nil, internal.ErrExpenseNotFound
	}
	return e, nil
}

func (s *Service) ListExpenses(f Filter, limit, offset int) ([]*Expense, error) {
	expenses, err := s.repo.List(f, limit, offset)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "store_id", f.StoreID)
		return nil, err
	}
	return expenses, nil
}

// UpdateExpense applies corrective edits. Materialized rows keep their
// period key and date, so idempotency of re-runs is unaffected.
func (s *Service) UpdateExpense(storeID, id string, dto UpdateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	e, err := s.repo.GetByID(storeID, id)
	if err != nil {
		return nil, internal.ErrExpenseNotFound
	}

	if dto.Category != nil {
		e.Category = *dto.Category
	}
	if dto.Amount != nil {
		e.Amount = *dto.Amount
	}
	if dto.Notes != nil {
		e.Notes = *dto.Notes
	}
	e.UpdatedAt = time.Now()

	if err := s.repo.Update(e); err != nil {
		s.logger.Error("failed to update expense", "error", err, "expense_id", id)
		return nil, err
	}

	s.logger.Info("expense updated", "expense_id", id, "store_id", storeID)
	return e, nil
}

// SumAmount aggregates materialized and one-off amounts for the filter.
// Summation happens in SQL and comes back as an exact decimal.
func (s *Service) SumAmount(f Filter) (*Summary, error) {
	total, count, err := s.repo.SumAmount(f)
	if err != nil {
		s.logger.Error("failed to sum expenses", "error", err, "store_id", f.StoreID)
		return nil, err
	}
	return &Summary{Total: total, Count: count}, nil
}
