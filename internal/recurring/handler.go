package recurring

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/transport"
	"github.com/cashbookhq/cashbook/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateTemplate(storeID string, dto CreateRecurringExpenseDTO) (*RecurringExpense, error)
	GetTemplate(storeID, id string) (*RecurringExpense, error)
	ListTemplates(storeID string, limit, offset int) ([]*RecurringExpense, error)
	UpdateTemplate(storeID, id string, dto UpdateRecurringExpenseDTO) (*RecurringExpense, error)
	PauseTemplate(storeID, id string) (*RecurringExpense, error)
	ResumeTemplate(storeID, id string) (*RecurringExpense, error)
	DeleteTemplate(storeID, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateRecurringExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateRecurringExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateRecurringExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	re, err := h.Service.CreateTemplate(storeID, dto)
	if err != nil {
		h.Logger.Error("CreateRecurringExpense: service error", "error", err, "store_id", storeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, re)
}

func (h *Handler) GetRecurringExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	re, err := h.Service.GetTemplate(storeID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, re)
}

func (h *Handler) ListRecurringExpenses(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paginationParams(r)
	templates, err := h.Service.ListTemplates(storeID, limit, offset)
	if err != nil {
		h.Logger.Error("ListRecurringExpenses: service error", "error", err, "store_id", storeID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list recurring expenses")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"recurring_expenses": templates,
		"limit":              limit,
		"offset":             offset,
	})
}

func (h *Handler) UpdateRecurringExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateRecurringExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateRecurringExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	re, err := h.Service.UpdateTemplate(storeID, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, re)
}

func (h *Handler) PauseRecurringExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	re, err := h.Service.PauseTemplate(storeID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("PauseRecurringExpense: paused", "template_id", re.ID, "store_id", storeID)
	h.WriteJSON(w, http.StatusOK, re)
}

func (h *Handler) ResumeRecurringExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	re, err := h.Service.ResumeTemplate(storeID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ResumeRecurringExpense: resumed", "template_id", re.ID, "store_id", storeID)
	h.WriteJSON(w, http.StatusOK, re)
}

func (h *Handler) DeleteRecurringExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.DeleteTemplate(storeID, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
