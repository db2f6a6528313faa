package expense

import (
	"time"

	expenseDatamodel "github.com/cashbookhq/cashbook/internal/core/datamodel/expense"
	"github.com/shopspring/decimal"
)

// Expense is a concrete, dated financial record. One-off expenses are
// created over the API; materialized occurrences are created only by the
// materialization engine and carry the source template plus a period key.
type Expense struct {
	ID               string          `json:"id"`
	StoreID          string          `json:"store_id"`
	SourceTemplateID *string         `json:"source_template_id,omitempty"`
	PeriodKey        *string         `json:"period_key,omitempty"`
	Category         string          `json:"category"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	OccurredAt       time.Time       `json:"occurred_at"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsMaterialized reports whether this row was generated from a recurring
// template.
func (e *Expense) IsMaterialized() bool {
	return e.SourceTemplateID != nil
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:               e.ID,
		StoreID:          e.StoreID,
		SourceTemplateID: e.SourceTemplateID,
		PeriodKey:        e.PeriodKey,
		Category:         e.Category,
		Amount:           e.Amount,
		Currency:         e.Currency,
		OccurredAt:       e.OccurredAt,
		Notes:            e.Notes,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:               e.ID,
		StoreID:          e.StoreID,
		SourceTemplateID: e.SourceTemplateID,
		PeriodKey:        e.PeriodKey,
		Category:         e.Category,
		Amount:           e.Amount,
		Currency:         e.Currency,
		OccurredAt:       e.OccurredAt,
		Notes:            e.Notes,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
