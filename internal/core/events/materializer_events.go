package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventExpenseMaterialized = "expense.materialized"
	EventRecurringEnded      = "recurring.ended"
)

// NewExpenseMaterializedEvent is published once per template after its due
// occurrences have been committed.
func NewExpenseMaterializedEvent(storeID, templateID string, occurrences int, through time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventExpenseMaterialized,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"store_id":    storeID,
			"template_id": templateID,
			"occurrences": occurrences,
			"through":     through.Format("2006-01-02"),
		},
	}
}

// NewRecurringEndedEvent is published when a template's end date is fully
// materialized and it transitions to ended.
func NewRecurringEndedEvent(storeID, templateID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventRecurringEnded,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"store_id":    storeID,
			"template_id": templateID,
		},
	}
}
