package recurring_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-chi/chi"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cashbookhq/cashbook/internal"
	recurringDatamodel "github.com/cashbookhq/cashbook/internal/core/datamodel/recurring"
	"github.com/cashbookhq/cashbook/internal/recurring"
	recurringPostgres "github.com/cashbookhq/cashbook/internal/recurring/postgres"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("RecurringExpense Handler Integration", func() {
	var (
		db      *gorm.DB
		service *recurring.Service
		handler *recurring.Handler
		router  *chi.Mux
	)

	storeID := "11111111-1111-1111-1111-111111111111"

	serve := func(method, target string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		req = req.WithContext(internal.ContextWithStoreID(req.Context(), storeID))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	createTemplate := func() recurring.RecurringExpense {
		w := serve(http.MethodPost, "/recurring-expenses", map[string]any{
			"name":           "Office rent",
			"category":       "rent",
			"amount":         "1500",
			"currency":       "USD",
			"frequency":      "monthly",
			"interval_count": 1,
			"start_date":     "2024-01-31T00:00:00Z",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created recurring.RecurringExpense
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		return created
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&recurringDatamodel.RecurringExpense{})
		Expect(err).NotTo(HaveOccurred())

		repo := recurringPostgres.NewRecurringRepository(db)
		service = recurring.NewService(repo, testLogger())
		handler = recurring.NewHandler(service)

		router = chi.NewRouter()
		router.Post("/recurring-expenses", handler.CreateRecurringExpense)
		router.Get("/recurring-expenses", handler.ListRecurringExpenses)
		router.Get("/recurring-expenses/{id}", handler.GetRecurringExpense)
		router.Patch("/recurring-expenses/{id}", handler.UpdateRecurringExpense)
		router.Delete("/recurring-expenses/{id}", handler.DeleteRecurringExpense)
		router.Post("/recurring-expenses/{id}/pause", handler.PauseRecurringExpense)
		router.Post("/recurring-expenses/{id}/resume", handler.ResumeRecurringExpense)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("should create and fetch a template", func() {
		created := createTemplate()
		Expect(created.Status).To(Equal(recurring.StatusActive))
		Expect(created.StartDate).To(Equal(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)))

		w := serve(http.MethodGet, "/recurring-expenses/"+created.ID, nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var fetched recurring.RecurringExpense
		Expect(json.NewDecoder(w.Body).Decode(&fetched)).To(Succeed())
		Expect(fetched.ID).To(Equal(created.ID))
		Expect(fetched.StoreID).To(Equal(storeID))
	})

	It("should reject an invalid payload with 400", func() {
		w := serve(http.MethodPost, "/recurring-expenses", map[string]any{
			"name":       "Broken",
			"category":   "rent",
			"amount":     "-1",
			"currency":   "USD",
			"frequency":  "monthly",
			"start_date": "2024-01-31T00:00:00Z",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 401 without a store in context", func() {
		req := httptest.NewRequest(http.MethodGet, "/recurring-expenses", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should pause and resume a template over HTTP", func() {
		created := createTemplate()

		w := serve(http.MethodPost, fmt.Sprintf("/recurring-expenses/%s/pause", created.ID), nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var paused recurring.RecurringExpense
		Expect(json.NewDecoder(w.Body).Decode(&paused)).To(Succeed())
		Expect(paused.Status).To(Equal(recurring.StatusPaused))

		w = serve(http.MethodPost, fmt.Sprintf("/recurring-expenses/%s/resume", created.ID), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should refuse to pause twice", func() {
		created := createTemplate()

		w := serve(http.MethodPost, fmt.Sprintf("/recurring-expenses/%s/pause", created.ID), nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = serve(http.MethodPost, fmt.Sprintf("/recurring-expenses/%s/pause", created.ID), nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should refuse to delete an active template", func() {
		created := createTemplate()

		w := serve(http.MethodDelete, "/recurring-expenses/"+created.ID, nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("should delete a paused template", func() {
		created := createTemplate()

		w := serve(http.MethodPost, fmt.Sprintf("/recurring-expenses/%s/pause", created.ID), nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = serve(http.MethodDelete, "/recurring-expenses/"+created.ID, nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = serve(http.MethodGet, "/recurring-expenses/"+created.ID, nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should return 404 for an unknown template", func() {
		w := serve(http.MethodGet, "/recurring-expenses/does-not-exist", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
