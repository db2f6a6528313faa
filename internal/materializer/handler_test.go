package materializer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/materializer"
)

type mockEngine struct {
	report   *materializer.Report
	err      error
	gotAsOf  time.Time
	numCalls int
}

func (m *mockEngine) MaterializeDue(ctx context.Context, asOf time.Time) (*materializer.Report, error) {
	m.numCalls++
	m.gotAsOf = asOf
	return m.report, m.err
}

var _ = Describe("Materialize Handler", func() {
	var (
		engine  *mockEngine
		handler *materializer.Handler
	)

	BeforeEach(func() {
		engine = &mockEngine{report: &materializer.Report{TemplatesProcessed: 2, OccurrencesCreated: 5}}
		handler = materializer.NewHandler(engine)
	})

	It("should run a sweep and return the report", func() {
		req := httptest.NewRequest(http.MethodPost, "/internal/recurring-expenses/materialize", nil)
		w := httptest.NewRecorder()

		handler.Materialize(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(engine.numCalls).To(Equal(1))

		var report materializer.Report
		Expect(json.NewDecoder(w.Body).Decode(&report)).To(Succeed())
		Expect(report.OccurrencesCreated).To(Equal(5))
		Expect(report.Errors).To(BeEmpty())
	})

	It("should honor an explicit as_of", func() {
		body, err := json.Marshal(map[string]string{"as_of": "2024-04-15T00:00:00Z"})
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/internal/recurring-expenses/materialize", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.Materialize(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(engine.gotAsOf).To(Equal(time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)))
	})

	It("should reject a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/internal/recurring-expenses/materialize", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()

		handler.Materialize(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(engine.numCalls).To(Equal(0))
	})

	It("should surface a batch that could not start", func() {
		engine.report = nil
		engine.err = internal.NewTransientStorageError("database unreachable", nil)

		req := httptest.NewRequest(http.MethodPost, "/internal/recurring-expenses/materialize", nil)
		w := httptest.NewRecorder()

		handler.Materialize(w, req)

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	})
})
