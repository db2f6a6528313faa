package recurring

import (
	"log/slog"
	"time"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/google/uuid"
)

// RepositoryAPI defines data access for recurring expense templates. Every
// method except ListDue is scoped to one store; ListDue feeds the
// materializer and returns due templates across stores, each row still
// carrying its own store ID.
type RepositoryAPI interface {
	Create(re *RecurringExpense) error
	GetByID(storeID, id string) (*RecurringExpense, error)
	List(storeID string, limit, offset int) ([]*RecurringExpense, error)
	Update(re *RecurringExpense) error
	UpdateStatus(storeID, id, status string) error
	SoftDelete(storeID, id string) error
	ListDue(asOf time.Time) ([]*RecurringExpense, error)
	AdvanceWatermark(storeID, id string, through time.Time) error
	MarkEnded(storeID, id string) error
}

// Service handles recurring expense template business logic.
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

func (s *Service) CreateTemplate(storeID string, dto CreateRecurringExpenseDTO) (*RecurringExpense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("recurring expense validation failed", "error", err, "store_id", storeID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	now := time.Now()
	re := &RecurringExpense{
		ID:              uuid.NewString(),
		StoreID:         storeID,
		Name:            dto.Name,
		Notes:           dto.Notes,
		ReferenceNumber: dto.ReferenceNumber,
		Category:        dto.Category,
		Amount:          dto.Amount,
		Currency:        dto.Currency,
		Frequency:       dto.Frequency,
		IntervalCount:   dto.IntervalCount,
		StartDate:       DateOnly(dto.StartDate),
		Status:          StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if dto.EndDate != nil {
		d := DateOnly(*dto.EndDate)
		re.EndDate = &d
	}

	if err := s.repo.Create(re); err != nil {
		s.logger.Error("failed to create recurring expense", "error", err, "store_id", storeID)
		return nil, err
	}

	s.logger.Info("recurring expense created",
		"template_id", re.ID,
		"store_id", storeID,
		"frequency", re.Frequency,
		"interval", re.IntervalCount,
		"amount", re.Amount.String())

	return re, nil
}

func (s *Service) GetTemplate(storeID, id string) (*RecurringExpense, error) {
	re, err := s.repo.GetByID(storeID, id)
	if err != nil {
		s.logger.Error("failed to get recurring expense", "error", err, "template_id", id, "store_id", storeID)
		return nil, internal.ErrTemplateNotFound
	}
	return re, nil
}

func (s *Service) ListTemplates(storeID string, limit, offset int) ([]*RecurringExpense, error) {
	templates, err := s.repo.List(storeID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list recurring expenses", "error", err, "store_id", storeID)
		return nil, err
	}
	return templates, nil
}

func (s *Service) UpdateTemplate(storeID, id string, dto UpdateRecurringExpenseDTO) (*RecurringExpense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("recurring expense update validation failed", "error", err, "template_id", id)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	re, err := s.repo.GetByID(storeID, id)
	if err != nil {
		return nil, internal.ErrTemplateNotFound
	}
	if re.Status == StatusEnded {
		s.logger.Warn("cannot edit ended recurring expense", "template_id", id, "store_id", storeID)
		return nil, internal.ErrInvalidStatusChange
	}

	dto.Apply(re)
	if re.EndDate != nil && DateOnly(*re.EndDate).Before(DateOnly(re.StartDate)) {
		return nil, internal.NewValidationError("end date cannot be before start date", internal.ErrCodeInvalidDateRange)
	}
	re.UpdatedAt = time.Now()

	if err := s.repo.Update(re); err != nil {
		s.logger.Error("failed to update recurring expense", "error", err, "template_id", id)
		return nil, err
	}

	s.logger.Info("recurring expense updated", "template_id", id, "store_id", storeID)
	return re, nil
}

func (s *Service) PauseTemplate(storeID, id string) (*RecurringExpense, error) {
	re, err := s.repo.GetByID(storeID, id)
	if err != nil {
		return nil, internal.ErrTemplateNotFound
	}
	if !re.CanBePaused() {
		s.logger.Warn("cannot pause recurring expense in current status",
			"template_id", id, "status", re.Status)
		return nil, internal.ErrInvalidStatusChange
	}

	if err := s.repo.UpdateStatus(storeID, id, StatusPaused); err != nil {
		s.logger.Error("failed to pause recurring expense", "error", err, "template_id", id)
		return nil, err
	}

	re.Pause()
	s.logger.Info("recurring expense paused", "template_id", id, "store_id", storeID)
	return re, nil
}

func (s *Service) ResumeTemplate(storeID, id string) (*RecurringExpense, error) {
	re, err := s.repo.GetByID(storeID, id)
	if err != nil {
		return nil, internal.ErrTemplateNotFound
	}
	if !re.CanBeResumed() {
		s.logger.Warn("cannot resume recurring expense in current status",
			"template_id", id, "status", re.Status)
		return nil, internal.ErrInvalidStatusChange
	}

	if err := s.repo.UpdateStatus(storeID, id, StatusActive); err != nil {
		s.logger.Error("failed to resume recurring expense", "error", err, "template_id", id)
		return nil, err
	}

	re.Resume()
	s.logger.Info("recurring expense resumed", "template_id", id, "store_id", storeID,
		"resumes_from", re.LastGeneratedThrough)
	return re, nil
}

// DeleteTemplate soft-deletes a template. An active template that still has
// pending periods is refused so history and the generation pipeline stay
// consistent; pause or end it first. Materialized occurrences are retained.
func (s *Service) DeleteTemplate(storeID, id string) error {
	re, err := s.repo.GetByID(storeID, id)
	if err != nil {
		return internal.ErrTemplateNotFound
	}
	if re.Status == StatusActive && !re.FullyCovered() {
		s.logger.Warn("refusing to delete active recurring expense with pending periods",
			"template_id", id, "store_id", storeID)
		return internal.ErrTemplateStillActive
	}

	if err := s.repo.SoftDelete(storeID, id); err != nil {
		s.logger.Error("failed to delete recurring expense", "error", err, "template_id", id)
		return err
	}

	s.logger.Info("recurring expense deleted", "template_id", id, "store_id", storeID)
	return nil
}
