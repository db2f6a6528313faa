package recurring

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecurringExpense struct {
	ID                   string          `gorm:"primaryKey;type:uuid"`
	StoreID              string          `gorm:"column:store_id;index;not null"`
	Name                 string          `gorm:"column:name;size:100;not null"`
	Notes                string          `gorm:"column:notes;type:text"`
	ReferenceNumber      string          `gorm:"column:reference_number;size:255"`
	Category             string          `gorm:"column:category;not null"`
	Amount               decimal.Decimal `gorm:"column:amount;type:numeric(20,4);not null"`
	Currency             string          `gorm:"column:currency;size:3;not null"`
	Frequency            string          `gorm:"column:frequency;not null"`
	IntervalCount        int             `gorm:"column:interval_count;not null;default:1"`
	StartDate            time.Time       `gorm:"column:start_date;type:date;not null"`
	EndDate              *time.Time      `gorm:"column:end_date;type:date"`
	Status               string          `gorm:"column:status;default:active"`
	LastGeneratedThrough *time.Time      `gorm:"column:last_generated_through;type:date"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt            gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (RecurringExpense) TableName() string {
	return "recurring_expenses"
}
