package recurring

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrNotFound = errors.New("recurring expense not found")
)

// CreateRecurringExpenseDTO is the request payload for registering a
// recurring obligation.
type CreateRecurringExpenseDTO struct {
	Name            string          `json:"name"`
	Notes           string          `json:"notes,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Frequency       string          `json:"frequency"`
	IntervalCount   int             `json:"interval_count"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
}

func (dto CreateRecurringExpenseDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if len(dto.Name) > 100 {
		return errors.New("name must be less than 100 characters")
	}
	if !dto.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if len(dto.Currency) != 3 {
		return errors.New("currency must be a 3-letter ISO code")
	}
	if !ValidCategory(dto.Category) {
		return errors.New("unknown category")
	}
	if !ValidFrequency(dto.Frequency) {
		return errors.New("frequency must be one of daily, weekly, monthly, custom")
	}
	if dto.IntervalCount < 1 {
		return errors.New("interval count must be at least 1")
	}
	if dto.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if dto.EndDate != nil && DateOnly(*dto.EndDate).Before(DateOnly(dto.StartDate)) {
		return errors.New("end date cannot be before start date")
	}
	return nil
}

// UpdateRecurringExpenseDTO carries user edits. Frequency, interval, amount
// and end date may change; the start date and the watermark never do.
type UpdateRecurringExpenseDTO struct {
	Name            *string          `json:"name,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	ReferenceNumber *string          `json:"reference_number,omitempty"`
	Category        *string          `json:"category,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Currency        *string          `json:"currency,omitempty"`
	Frequency       *string          `json:"frequency,omitempty"`
	IntervalCount   *int             `json:"interval_count,omitempty"`
	EndDate         *time.Time       `json:"end_date,omitempty"`
	ClearEndDate    bool             `json:"clear_end_date,omitempty"`
}

func (dto UpdateRecurringExpenseDTO) Validate() error {
	if dto.Name != nil && (*dto.Name == "" || len(*dto.Name) > 100) {
		return errors.New("name must be between 1 and 100 characters")
	}
	if dto.Amount != nil && !dto.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if dto.Currency != nil && len(*dto.Currency) != 3 {
		return errors.New("currency must be a 3-letter ISO code")
	}
	if dto.Category != nil && !ValidCategory(*dto.Category) {
		return errors.New("unknown category")
	}
	if dto.Frequency != nil && !ValidFrequency(*dto.Frequency) {
		return errors.New("frequency must be one of daily, weekly, monthly, custom")
	}
	if dto.IntervalCount != nil && *dto.IntervalCount < 1 {
		return errors.New("interval count must be at least 1")
	}
	if dto.EndDate != nil && dto.ClearEndDate {
		return errors.New("end_date and clear_end_date are mutually exclusive")
	}
	return nil
}

// Apply copies the edits onto the template. End-date-vs-start validation
// happens afterwards against the merged state.
func (dto UpdateRecurringExpenseDTO) Apply(re *RecurringExpense) {
	if dto.Name != nil {
		re.Name = *dto.Name
	}
	if dto.Notes != nil {
		re.Notes = *dto.Notes
	}
	if dto.ReferenceNumber != nil {
		re.ReferenceNumber = *dto.ReferenceNumber
	}
	if dto.Category != nil {
		re.Category = *dto.Category
	}
	if dto.Amount != nil {
		re.Amount = *dto.Amount
	}
	if dto.Currency != nil {
		re.Currency = *dto.Currency
	}
	if dto.Frequency != nil {
		re.Frequency = *dto.Frequency
	}
	if dto.IntervalCount != nil {
		re.IntervalCount = *dto.IntervalCount
	}
	if dto.ClearEndDate {
		re.EndDate = nil
	} else if dto.EndDate != nil {
		d := DateOnly(*dto.EndDate)
		re.EndDate = &d
	}
}
