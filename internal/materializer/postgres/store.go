package postgres

import (
	"time"

	"github.com/cashbookhq/cashbook/internal/expense"
	expensePostgres "github.com/cashbookhq/cashbook/internal/expense/postgres"
	"github.com/cashbookhq/cashbook/internal/materializer"
	"github.com/cashbookhq/cashbook/internal/recurring"
	recurringPostgres "github.com/cashbookhq/cashbook/internal/recurring/postgres"
	"gorm.io/gorm"
)

// Store adapts the template and occurrence repositories to the engine's
// persistence surface. InTransaction rebinds both repositories to a
// transaction handle, so everything the engine does for one template
// commits or rolls back together.
type Store struct {
	db        *gorm.DB
	templates recurring.RepositoryAPI
	expenses  expense.RepositoryAPI
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		templates: recurringPostgres.NewRecurringRepository(db),
		expenses:  expensePostgres.NewExpenseRepository(db),
	}
}

func (s *Store) ListDueTemplates(asOf time.Time) ([]*recurring.RecurringExpense, error) {
	return s.templates.ListDue(asOf)
}

func (s *Store) InsertOccurrenceIfAbsent(e *expense.Expense) (bool, error) {
	return s.expenses.InsertIfAbsent(e)
}

func (s *Store) GetOccurrenceBySourcePeriod(templateID, periodKey string) (*expense.Expense, error) {
	return s.expenses.GetBySourcePeriod(templateID, periodKey)
}

func (s *Store) AdvanceWatermark(storeID, templateID string, through time.Time) error {
	return s.templates.AdvanceWatermark(storeID, templateID, through)
}

func (s *Store) MarkEnded(storeID, templateID string) error {
	return s.templates.MarkEnded(storeID, templateID)
}

func (s *Store) InTransaction(fn func(tx materializer.Store) error) error {
	return s.db.Transaction(func(txDB *gorm.DB) error {
		return fn(NewStore(txDB))
	})
}
