package materializer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cashbookhq/cashbook/internal/core/events"
)

// EventHandler is the in-process audit consumer for engine events: every
// committed batch and every template that reaches its end date leaves a log
// trail, without coupling the engine itself to the audit concern.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleExpenseMaterialized(ctx context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		h.logger.Error("invalid payload for expense materialized handler", "event_type", event.EventType())
		return fmt.Errorf("expected map payload, got %T", event.Payload())
	}

	h.logger.Info("materialized batch recorded",
		"store_id", data["store_id"],
		"template_id", data["template_id"],
		"occurrences", data["occurrences"],
		"through", data["through"],
		"event_id", event.EventID())

	return nil
}

func (h *EventHandler) HandleRecurringEnded(ctx context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		h.logger.Error("invalid payload for recurring ended handler", "event_type", event.EventType())
		return fmt.Errorf("expected map payload, got %T", event.Payload())
	}

	h.logger.Info("recurring template ended",
		"store_id", data["store_id"],
		"template_id", data["template_id"],
		"event_id", event.EventID())

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventExpenseMaterialized, h.HandleExpenseMaterialized)
	eventBus.Subscribe(events.EventRecurringEnded, h.HandleRecurringEnded)

	h.logger.Info("materializer event handlers registered",
		"handlers", []string{events.EventExpenseMaterialized, events.EventRecurringEnded})
}
