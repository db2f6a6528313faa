package materializer_test

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/cashbookhq/cashbook/internal/core/events"
	"github.com/cashbookhq/cashbook/internal/materializer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// opaqueEvent carries a payload that is not the map shape the audit
// handlers expect.
type opaqueEvent struct {
	events.BaseEvent
}

func (e opaqueEvent) Payload() interface{} {
	return "not-a-map"
}

var _ = Describe("EventHandler", func() {
	var (
		logOutput *bytes.Buffer
		bus       *events.EventBus
		handler   *materializer.EventHandler
	)

	BeforeEach(func() {
		logOutput = &bytes.Buffer{}
		log := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelDebug}))
		bus = events.NewEventBus(log)
		handler = materializer.NewEventHandler(log)
		handler.RegisterEventHandlers(bus)
	})

	Context("when a materialized batch event is published on the bus", func() {
		It("should audit the batch with its store, template and coverage", func() {
			through := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
			event := events.NewExpenseMaterializedEvent("store-1", "tmpl-1", 3, through)

			err := bus.PublishSync(context.Background(), event)

			Expect(err).NotTo(HaveOccurred())
			Expect(logOutput.String()).To(ContainSubstring("materialized batch recorded"))
			Expect(logOutput.String()).To(ContainSubstring("store_id=store-1"))
			Expect(logOutput.String()).To(ContainSubstring("template_id=tmpl-1"))
			Expect(logOutput.String()).To(ContainSubstring("occurrences=3"))
			Expect(logOutput.String()).To(ContainSubstring("through=2024-03-31"))
		})
	})

	Context("when a template reaches its end date", func() {
		It("should audit the ended template", func() {
			err := bus.PublishSync(context.Background(), events.NewRecurringEndedEvent("store-1", "tmpl-9"))

			Expect(err).NotTo(HaveOccurred())
			Expect(logOutput.String()).To(ContainSubstring("recurring template ended"))
			Expect(logOutput.String()).To(ContainSubstring("template_id=tmpl-9"))
		})
	})

	Context("when an event carries an unexpected payload", func() {
		It("should fail instead of logging a partial audit line", func() {
			event := opaqueEvent{events.BaseEvent{
				ID:        "evt-1",
				Type:      events.EventExpenseMaterialized,
				Timestamp: time.Now().UTC(),
			}}

			err := handler.HandleExpenseMaterialized(context.Background(), event)

			Expect(err).To(HaveOccurred())
			Expect(logOutput.String()).NotTo(ContainSubstring("materialized batch recorded"))
		})
	})
})
