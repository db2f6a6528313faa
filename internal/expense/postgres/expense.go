package postgres

import (
	"time"

	expenseDatamodel "github.com/cashbookhq/cashbook/internal/core/datamodel/expense"
	"github.com/cashbookhq/cashbook/internal/expense"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseRepository implements expense.RepositoryAPI using GORM.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.RepositoryAPI {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(e *expense.Expense) error {
	return r.db.Create(expense.ToDataModel(e)).Error
}

func (r *ExpenseRepository) GetByID(storeID, id string) (*expense.Expense, error) {
	var row expenseDatamodel.Expense
	err := r.db.Where("store_id = ? AND id = ?", storeID, id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, expense.ErrNotFound
		}
		return nil, err
	}
	return expense.FromDataModel(&row), nil
}

func (r *ExpenseRepository) List(f expense.Filter, limit, offset int) ([]*expense.Expense, error) {
	var rows []*expenseDatamodel.Expense
	err := r.scope(f).
		Order("occurred_at DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return expense.FromDataModelSlice(rows), nil
}

func (r *ExpenseRepository) Update(e *expense.Expense) error {
	e.UpdatedAt = time.Now()
	return r.db.Where("store_id = ?", e.StoreID).Save(expense.ToDataModel(e)).Error
}

// SumAmount aggregates in SQL. The numeric column scans back into a
// decimal, so no binary floating point touches the money path on postgres.
func (r *ExpenseRepository) SumAmount(f expense.Filter) (decimal.Decimal, int64, error) {
	var result struct {
		Total decimal.Decimal
		Count int64
	}
	err := r.scope(f).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return result.Total, result.Count, nil
}

// InsertIfAbsent writes an occurrence unless one already exists for the same
// (source_template_id, period_key). A conflict is a no-op; the existing
// row's financial fields are never touched, so a re-run cannot silently
// mutate an already-reported expense. Returns false when the row was
// already there.
func (r *ExpenseRepository) InsertIfAbsent(e *expense.Expense) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_template_id"}, {Name: "period_key"}},
		DoNothing: true,
	}).Create(expense.ToDataModel(e))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ExpenseRepository) GetBySourcePeriod(templateID, periodKey string) (*expense.Expense, error) {
	var row expenseDatamodel.Expense
	err := r.db.Where("source_template_id = ? AND period_key = ?", templateID, periodKey).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, expense.ErrNotFound
		}
		return nil, err
	}
	return expense.FromDataModel(&row), nil
}

func (r *ExpenseRepository) scope(f expense.Filter) *gorm.DB {
	q := r.db.Model(&expenseDatamodel.Expense{}).Where("store_id = ?", f.StoreID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Currency != "" {
		q = q.Where("currency = ?", f.Currency)
	}
	if f.SourceTemplateID != "" {
		q = q.Where("source_template_id = ?", f.SourceTemplateID)
	}
	if f.From != nil {
		q = q.Where("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("occurred_at <= ?", *f.To)
	}
	return q
}
