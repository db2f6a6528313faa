package recurring

import (
	"time"

	recurringDatamodel "github.com/cashbookhq/cashbook/internal/core/datamodel/recurring"
	"github.com/shopspring/decimal"
)

// RecurringExpense is the template for a standing financial obligation. It
// never represents a concrete transaction itself; the materializer turns it
// into dated expense occurrences.
type RecurringExpense struct {
	ID                   string          `json:"id"`
	StoreID              string          `json:"store_id"`
	Name                 string          `json:"name"`
	Notes                string          `json:"notes,omitempty"`
	ReferenceNumber      string          `json:"reference_number,omitempty"`
	Category             string          `json:"category"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Frequency            string          `json:"frequency"`
	IntervalCount        int             `json:"interval_count"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              *time.Time      `json:"end_date,omitempty"`
	Status               string          `json:"status"`
	LastGeneratedThrough *time.Time      `json:"last_generated_through,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	// FrequencyCustom repeats every IntervalCount days.
	FrequencyCustom = "custom"
)

const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusEnded  = "ended"
)

var Categories = []string{
	"operating",
	"payroll",
	"marketing",
	"rent",
	"utilities",
	"other",
}

func ValidFrequency(frequency string) bool {
	switch frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

func (re *RecurringExpense) IsActive() bool {
	return re.Status == StatusActive
}

func (re *RecurringExpense) CanBePaused() bool {
	return re.Status == StatusActive
}

func (re *RecurringExpense) CanBeResumed() bool {
	return re.Status == StatusPaused
}

// Pause freezes generation. The watermark stays where it is so a later
// resume picks up exactly where materialization stopped.
func (re *RecurringExpense) Pause() {
	re.Status = StatusPaused
	re.UpdatedAt = time.Now()
}

func (re *RecurringExpense) Resume() {
	re.Status = StatusActive
	re.UpdatedAt = time.Now()
}

// FullyCovered reports whether every period up to the end date has been
// materialized. Templates without an end date are never fully covered.
func (re *RecurringExpense) FullyCovered() bool {
	if re.EndDate == nil {
		return false
	}
	if re.LastGeneratedThrough == nil {
		return DateOnly(re.StartDate).After(DateOnly(*re.EndDate))
	}
	next, ok := re.nextPeriodAfter(*re.LastGeneratedThrough)
	if !ok {
		return true
	}
	return next.After(DateOnly(*re.EndDate))
}

func ToDataModel(re *RecurringExpense) *recurringDatamodel.RecurringExpense {
	return &recurringDatamodel.RecurringExpense{
		ID:                   re.ID,
		StoreID:              re.StoreID,
		Name:                 re.Name,
		Notes:                re.Notes,
		ReferenceNumber:      re.ReferenceNumber,
		Category:             re.Category,
		Amount:               re.Amount,
		Currency:             re.Currency,
		Frequency:            re.Frequency,
		IntervalCount:        re.IntervalCount,
		StartDate:            re.StartDate,
		EndDate:              re.EndDate,
		Status:               re.Status,
		LastGeneratedThrough: re.LastGeneratedThrough,
		CreatedAt:            re.CreatedAt,
		UpdatedAt:            re.UpdatedAt,
	}
}

func FromDataModel(re *recurringDatamodel.RecurringExpense) *RecurringExpense {
	return &RecurringExpense{
		ID:                   re.ID,
		StoreID:              re.StoreID,
		Name:                 re.Name,
		Notes:                re.Notes,
		ReferenceNumber:      re.ReferenceNumber,
		Category:             re.Category,
		Amount:               re.Amount,
		Currency:             re.Currency,
		Frequency:            re.Frequency,
		IntervalCount:        re.IntervalCount,
		StartDate:            re.StartDate,
		EndDate:              re.EndDate,
		Status:               re.Status,
		LastGeneratedThrough: re.LastGeneratedThrough,
		CreatedAt:            re.CreatedAt,
		UpdatedAt:            re.UpdatedAt,
	}
}

func FromDataModelSlice(templates []*recurringDatamodel.RecurringExpense) []*RecurringExpense {
	result := make([]*RecurringExpense, len(templates))
	for i, re := range templates {
		result[i] = FromDataModel(re)
	}
	return result
}
