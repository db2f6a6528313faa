package materializer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/core/events"
	"github.com/cashbookhq/cashbook/internal/expense"
	"github.com/cashbookhq/cashbook/internal/recurring"
	"github.com/google/uuid"
)

// Store is the persistence surface the engine needs. InTransaction hands
// the callback a store bound to one transaction; the engine runs one
// transaction per template so a failure rolls back that template's inserts
// and watermark together without touching other templates.
type Store interface {
	ListDueTemplates(asOf time.Time) ([]*recurring.RecurringExpense, error)
	InsertOccurrenceIfAbsent(e *expense.Expense) (bool, error)
	GetOccurrenceBySourcePeriod(templateID, periodKey string) (*expense.Expense, error)
	AdvanceWatermark(storeID, templateID string, through time.Time) error
	MarkEnded(storeID, templateID string) error
	InTransaction(fn func(tx Store) error) error
}

// EventPublisher is satisfied by the in-process event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// TemplateError reports a failure materializing one template. The batch
// continues past it.
type TemplateError struct {
	TemplateID string `json:"template_id"`
	Message    string `json:"message"`
}

// Report summarizes one MaterializeDue batch.
type Report struct {
	TemplatesProcessed int             `json:"templates_processed"`
	OccurrencesCreated int             `json:"occurrences_created"`
	Errors             []TemplateError `json:"errors"`
}

// Engine turns due recurring expense templates into concrete expense rows.
// Safe to run concurrently: occurrence inserts are idempotent on the period
// key and the watermark advance is a compare-and-swap, so two overlapping
// runs converge on the same final state.
type Engine struct {
	store      Store
	bus        EventPublisher
	logger     *slog.Logger
	maxPeriods int
}

func NewEngine(store Store, bus EventPublisher, logger *slog.Logger, maxPeriods int) *Engine {
	if maxPeriods <= 0 {
		maxPeriods = recurring.DefaultMaxPeriods
	}
	return &Engine{
		store:      store,
		bus:        bus,
		logger:     logger,
		maxPeriods: maxPeriods,
	}
}

// MaterializeDue processes every due template independently as of the given
// time. A failing template is recorded in the report and does not abort the
// batch. The returned error is non-nil only when the batch could not start
// at all.
func (e *Engine) MaterializeDue(ctx context.Context, asOf time.Time) (*Report, error) {
	asOf = recurring.DateOnly(asOf)

	templates, err := e.store.ListDueTemplates(asOf)
	if err != nil {
		e.logger.Error("failed to list due templates", "error", err)
		return nil, internal.NewTransientStorageError("failed to list due templates", err)
	}

	report := &Report{}
	for _, tmpl := range templates {
		select {
		case <-ctx.Done():
			e.logger.Warn("materialization batch cancelled",
				"processed", report.TemplatesProcessed,
				"remaining", len(templates)-report.TemplatesProcessed)
			return report, nil
		default:
		}

		created, ended, through, err := e.materializeTemplate(tmpl, asOf)
		report.TemplatesProcessed++
		report.OccurrencesCreated += created
		if err != nil {
			report.Errors = append(report.Errors, TemplateError{
				TemplateID: tmpl.ID,
				Message:    err.Error(),
			})
			continue
		}

		if created > 0 && e.bus != nil {
			_ = e.bus.Publish(ctx, events.NewExpenseMaterializedEvent(tmpl.StoreID, tmpl.ID, created, through))
		}
		if ended && e.bus != nil {
			_ = e.bus.Publish(ctx, events.NewRecurringEndedEvent(tmpl.StoreID, tmpl.ID))
		}
	}

	e.logger.Info("materialization batch finished",
		"as_of", asOf.Format("2006-01-02"),
		"templates_processed", report.TemplatesProcessed,
		"occurrences_created", report.OccurrencesCreated,
		"errors", len(report.Errors))

	return report, nil
}

// materializeTemplate computes the template's due periods and commits the
// occurrences, the watermark advance and any end transition in a single
// transaction.
func (e *Engine) materializeTemplate(tmpl *recurring.RecurringExpense, asOf time.Time) (created int, ended bool, through time.Time, err error) {
	plan, err := tmpl.DuePeriods(asOf, e.maxPeriods)
	if err != nil {
		e.logger.Error("invalid schedule on template",
			"template_id", tmpl.ID, "store_id", tmpl.StoreID, "error", err)
		return 0, false, time.Time{}, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidFrequency)
	}

	if len(plan.Periods) == 0 {
		// Due by the coarse store query but nothing to do yet, e.g. the
		// next period starts after asOf.
		if tmpl.FullyCovered() {
			if err := e.store.MarkEnded(tmpl.StoreID, tmpl.ID); err != nil {
				return 0, false, time.Time{}, internal.NewTransientStorageError("failed to end template", err)
			}
			return 0, true, time.Time{}, nil
		}
		return 0, false, time.Time{}, nil
	}

	txErr := e.store.InTransaction(func(tx Store) error {
		for _, periodStart := range plan.Periods {
			occ := e.buildOccurrence(tmpl, periodStart)
			inserted, err := tx.InsertOccurrenceIfAbsent(occ)
			if err != nil {
				return internal.NewTransientStorageError("failed to insert occurrence", err)
			}
			if !inserted {
				// A previous or concurrent run already wrote this period.
				// Benign as long as the financial data matches.
				if err := e.verifyExisting(tx, tmpl, occ); err != nil {
					return err
				}
				continue
			}
			created++
		}

		last := plan.Periods[len(plan.Periods)-1]
		if err := tx.AdvanceWatermark(tmpl.StoreID, tmpl.ID, last); err != nil {
			return internal.NewTransientStorageError("failed to advance watermark", err)
		}
		tmpl.LastGeneratedThrough = &last
		through = last

		if !plan.MorePending && tmpl.FullyCovered() {
			if err := tx.MarkEnded(tmpl.StoreID, tmpl.ID); err != nil {
				return internal.NewTransientStorageError("failed to end template", err)
			}
			tmpl.Status = recurring.StatusEnded
			ended = true
		}

		return nil
	})
	if txErr != nil {
		logAttrs := []any{"template_id", tmpl.ID, "store_id", tmpl.StoreID, "error", txErr}
		if appErr, ok := internal.IsAppError(txErr); ok && appErr.Type == internal.ErrorTypeInvariant {
			e.logger.Error("invariant violation while materializing template; needs manual review", logAttrs...)
		} else {
			e.logger.Warn("transient failure materializing template; will retry next sweep", logAttrs...)
		}
		return 0, false, time.Time{}, txErr
	}

	if plan.MorePending {
		e.logger.Info("safety horizon reached; template remains due",
			"template_id", tmpl.ID, "through", through.Format("2006-01-02"))
	}

	return created, ended, through, nil
}

func (e *Engine) buildOccurrence(tmpl *recurring.RecurringExpense, periodStart time.Time) *expense.Expense {
	now := time.Now()
	templateID := tmpl.ID
	periodKey := PeriodKey(tmpl.ID, periodStart)
	return &expense.Expense{
		ID:               uuid.NewString(),
		StoreID:          tmpl.StoreID,
		SourceTemplateID: &templateID,
		PeriodKey:        &periodKey,
		Category:         tmpl.Category,
		Amount:           tmpl.Amount,
		Currency:         tmpl.Currency,
		OccurredAt:       periodStart,
		Notes:            tmpl.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// verifyExisting guards the idempotency invariant: a period-key conflict
// must carry the same financial data as the template. Anything else means
// external tampering or a schedule bug and fails the template until someone
// looks at it.
func (e *Engine) verifyExisting(tx Store, tmpl *recurring.RecurringExpense, occ *expense.Expense) error {
	existing, err := tx.GetOccurrenceBySourcePeriod(tmpl.ID, *occ.PeriodKey)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			// Conflict on insert but no row on read should not happen
			// inside one transaction.
			return internal.ErrPeriodKeyConflict
		}
		return internal.NewTransientStorageError("failed to read conflicting occurrence", err)
	}
	if !existing.Amount.Equal(occ.Amount) || existing.Currency != occ.Currency {
		e.logger.Error("period key collision with different financial data",
			"template_id", tmpl.ID,
			"period_key", *occ.PeriodKey,
			"existing_amount", existing.Amount.String(),
			"expected_amount", occ.Amount.String())
		return internal.ErrPeriodKeyConflict
	}
	return nil
}
