package rest

import (
	"crypto/rsa"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/cashbookhq/cashbook/internal/expense"
	"github.com/cashbookhq/cashbook/internal/materializer"
	"github.com/cashbookhq/cashbook/internal/recurring"
	"github.com/cashbookhq/cashbook/internal/transport/middleware"
	"github.com/cashbookhq/cashbook/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// RouterConfig bundles everything route registration needs.
type RouterConfig struct {
	DB                 *sql.DB
	JWTPublicKey       *rsa.PublicKey
	InternalAPIToken   string
	AllowedOrigins     string
	RecurringHandler   *recurring.Handler
	ExpenseHandler     *expense.Handler
	MaterializeHandler *materializer.Handler
	Logger             *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig) {
	healthHandler := NewHealthHandler(cfg.DB)

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(cfg.Logger))
	router.Use(middleware.LoggingMiddleware(cfg.Logger))

	// OpenAPI spec at root, swagger UI next to it
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Store-scoped routes require a signed store token.
		r.Group(func(sr chi.Router) {
			sr.Use(middleware.StoreAuth(cfg.JWTPublicKey, cfg.Logger))

			if cfg.RecurringHandler != nil {
				sr.Route("/recurring-expenses", func(rr chi.Router) {
					rr.Post("/", cfg.RecurringHandler.CreateRecurringExpense)
					rr.Get("/", cfg.RecurringHandler.ListRecurringExpenses)
					rr.Get("/{id}", cfg.RecurringHandler.GetRecurringExpense)
					rr.Patch("/{id}", cfg.RecurringHandler.UpdateRecurringExpense)
					rr.Delete("/{id}", cfg.RecurringHandler.DeleteRecurringExpense)
					rr.Post("/{id}/pause", cfg.RecurringHandler.PauseRecurringExpense)
					rr.Post("/{id}/resume", cfg.RecurringHandler.ResumeRecurringExpense)
				})
			}

			if cfg.ExpenseHandler != nil {
				sr.Route("/expenses", func(er chi.Router) {
					er.Post("/", cfg.ExpenseHandler.CreateExpense)
					er.Get("/", cfg.ExpenseHandler.ListExpenses)
					er.Get("/summary", cfg.ExpenseHandler.GetSummary)
					er.Get("/{id}", cfg.ExpenseHandler.GetExpense)
					er.Patch("/{id}", cfg.ExpenseHandler.UpdateExpense)
				})
			}
		})

		// Internal trigger for the job scheduler; not store-scoped, the
		// engine sweeps every tenant's due templates. Guarded by a shared
		// secret instead of a store token.
		if cfg.MaterializeHandler != nil {
			r.Group(func(ir chi.Router) {
				ir.Use(middleware.InternalAuth(cfg.InternalAPIToken, cfg.Logger))
				ir.Post("/internal/recurring-expenses/materialize", cfg.MaterializeHandler.Materialize)
			})
		}
	})
}
