package expense_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/expense"
)

func TestExpenseService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Expense Service Suite")
}

// Mock repository for testing
type mockExpenseRepository struct {
	rows        map[string]*expense.Expense
	createError error
	sumError    error
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{
		rows: make(map[string]*expense.Expense),
	}
}

func (m *mockExpenseRepository) Create(e *expense.Expense) error {
	if m.createError != nil {
		return m.createError
	}
	m.rows[e.ID] = e
	return nil
}

func (m *mockExpenseRepository) GetByID(storeID, id string) (*expense.Expense, error) {
	e, ok := m.rows[id]
	if !ok || e.StoreID != storeID {
		return nil, expense.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockExpenseRepository) List(f expense.Filter, limit, offset int) ([]*expense.Expense, error) {
	var result []*expense.Expense
	for _, e := range m.rows {
		if m.matches(e, f) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockExpenseRepository) Update(e *expense.Expense) error {
	m.rows[e.ID] = e
	return nil
}

func (m *mockExpenseRepository) SumAmount(f expense.Filter) (decimal.Decimal, int64, error) {
	if m.sumError != nil {
		return decimal.Zero, 0, m.sumError
	}
	total := decimal.Zero
	var count int64
	for _, e := range m.rows {
		if m.matches(e, f) {
			total = total.Add(e.Amount)
			count++
		}
	}
	return total, count, nil
}

func (m *mockExpenseRepository) InsertIfAbsent(e *expense.Expense) (bool, error) {
	for _, existing := range m.rows {
		if existing.SourceTemplateID != nil && e.SourceTemplateID != nil &&
			*existing.SourceTemplateID == *e.SourceTemplateID &&
			*existing.PeriodKey == *e.PeriodKey {
			return false, nil
		}
	}
	m.rows[e.ID] = e
	return true, nil
}

func (m *mockExpenseRepository) GetBySourcePeriod(templateID, periodKey string) (*expense.Expense, error) {
	for _, e := range m.rows {
		if e.SourceTemplateID != nil && *e.SourceTemplateID == templateID && *e.PeriodKey == periodKey {
			return e, nil
		}
	}
	return nil, expense.ErrNotFound
}

func (m *mockExpenseRepository) matches(e *expense.Expense, f expense.Filter) bool {
	if e.StoreID != f.StoreID {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Currency != "" && e.Currency != f.Currency {
		return false
	}
	if f.SourceTemplateID != "" && (e.SourceTemplateID == nil || *e.SourceTemplateID != f.SourceTemplateID) {
		return false
	}
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.OccurredAt.After(*f.To) {
		return false
	}
	return true
}

var _ = Describe("ExpenseService", func() {
	var (
		service *expense.Service
		repo    *mockExpenseRepository
		logger  *slog.Logger
	)

	storeID := "11111111-1111-1111-1111-111111111111"

	BeforeEach(func() {
		repo = newMockExpenseRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = expense.NewService(repo, logger)
	})

	Describe("CreateOneOffExpense", func() {
		It("should create an expense without a source template", func() {
			result, err := service.CreateOneOffExpense(storeID, expense.CreateExpenseDTO{
				Category:   "operating",
				Amount:     decimal.NewFromFloat(49.90),
				Currency:   "USD",
				OccurredAt: time.Date(2024, time.June, 3, 14, 0, 0, 0, time.UTC),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.IsMaterialized()).To(BeFalse())
			Expect(result.PeriodKey).To(BeNil())
			Expect(result.OccurredAt).To(Equal(time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)))
		})

		It("should reject a negative amount", func() {
			_, err := service.CreateOneOffExpense(storeID, expense.CreateExpenseDTO{
				Category:   "operating",
				Amount:     decimal.NewFromInt(-5),
				Currency:   "USD",
				OccurredAt: time.Now(),
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should return the repository error on failure", func() {
			repo.createError = errors.New("connection refused")

			_, err := service.CreateOneOffExpense(storeID, expense.CreateExpenseDTO{
				Category:   "operating",
				Amount:     decimal.NewFromInt(10),
				Currency:   "USD",
				OccurredAt: time.Now(),
			})

			Expect(err).To(MatchError("connection refused"))
		})
	})

	Describe("UpdateExpense", func() {
		It("should apply corrective edits but keep the occurrence date", func() {
			created, err := service.CreateOneOffExpense(storeID, expense.CreateExpenseDTO{
				Category:   "operating",
				Amount:     decimal.NewFromInt(100),
				Currency:   "USD",
				OccurredAt: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
			})
			Expect(err).ToNot(HaveOccurred())

			amount := decimal.NewFromInt(120)
			notes := "corrected receipt"
			updated, err := service.UpdateExpense(storeID, created.ID, expense.UpdateExpenseDTO{
				Amount: &amount,
				Notes:  &notes,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Amount).To(Equal(amount))
			Expect(updated.Notes).To(Equal(notes))
			Expect(updated.OccurredAt).To(Equal(created.OccurredAt))
		})

		It("should return not found for another store's expense", func() {
			created, err := service.CreateOneOffExpense(storeID, expense.CreateExpenseDTO{
				Category:   "operating",
				Amount:     decimal.NewFromInt(100),
				Currency:   "USD",
				OccurredAt: time.Now(),
			})
			Expect(err).ToNot(HaveOccurred())

			amount := decimal.NewFromInt(1)
			_, err = service.UpdateExpense("22222222-2222-2222-2222-222222222222", created.ID, expense.UpdateExpenseDTO{
				Amount: &amount,
			})

			Expect(err).To(MatchError(internal.ErrExpenseNotFound))
		})
	})

	Describe("SumAmount", func() {
		BeforeEach(func() {
			for _, amt := range []int64{100, 250, 75} {
				_, err := service.CreateOneOffExpense(storeID, expense.CreateExpenseDTO{
					Category:   "operating",
					Amount:     decimal.NewFromInt(amt),
					Currency:   "USD",
					OccurredAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
				})
				Expect(err).ToNot(HaveOccurred())
			}
		})

		It("should total every matching expense", func() {
			summary, err := service.SumAmount(expense.Filter{StoreID: storeID})

			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Total.Equal(decimal.NewFromInt(425))).To(BeTrue())
			Expect(summary.Count).To(Equal(int64(3)))
		})

		It("should return zero for a store with no expenses", func() {
			summary, err := service.SumAmount(expense.Filter{StoreID: "33333333-3333-3333-3333-333333333333"})

			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Total.IsZero()).To(BeTrue())
			Expect(summary.Count).To(Equal(int64(0)))
		})
	})
})
