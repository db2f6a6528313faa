package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one concrete, dated financial record. Rows materialized from a
// recurring template carry SourceTemplateID and PeriodKey; one-off rows carry
// neither. The composite unique index on (source_template_id, period_key) is
// the storage-level duplicate guard for materialization re-runs.
type Expense struct {
	ID               string          `gorm:"primaryKey;type:uuid"`
	StoreID          string          `gorm:"column:store_id;index;not null"`
	SourceTemplateID *string         `gorm:"column:source_template_id;type:uuid;uniqueIndex:idx_expenses_template_period"`
	PeriodKey        *string         `gorm:"column:period_key;size:64;uniqueIndex:idx_expenses_template_period"`
	Category         string          `gorm:"column:category;not null"`
	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(20,4);not null"`
	Currency         string          `gorm:"column:currency;size:3;not null"`
	OccurredAt       time.Time       `gorm:"column:occurred_at;type:date;not null"`
	Notes            string          `gorm:"column:notes;type:text"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}
