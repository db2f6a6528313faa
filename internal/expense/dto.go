package expense

import (
	"errors"
	"time"

	"github.com/cashbookhq/cashbook/internal/recurring"
	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrNotFound = errors.New("expense not found")
)

// CreateExpenseDTO is the request payload for a one-off expense. Template
// occurrences never come in through this path.
type CreateExpenseDTO struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	OccurredAt time.Time       `json:"occurred_at"`
	Notes      string          `json:"notes,omitempty"`
}

func (dto CreateExpenseDTO) Validate() error {
	if !dto.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if len(dto.Currency) != 3 {
		return errors.New("currency must be a 3-letter ISO code")
	}
	if !recurring.ValidCategory(dto.Category) {
		return errors.New("unknown category")
	}
	if dto.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}
	return nil
}

// UpdateExpenseDTO carries corrective edits. The occurrence date, source
// template and period key never change.
type UpdateExpenseDTO struct {
	Category *string          `json:"category,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}

func (dto UpdateExpenseDTO) Validate() error {
	if dto.Amount != nil && !dto.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if dto.Category != nil && !recurring.ValidCategory(*dto.Category) {
		return errors.New("unknown category")
	}
	return nil
}

// Filter narrows expense queries. StoreID is mandatory; everything else is
// optional.
type Filter struct {
	StoreID          string
	Category         string
	Currency         string
	SourceTemplateID string
	From             *time.Time
	To               *time.Time
}

// Summary is the aggregation result for a filter.
type Summary struct {
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}
