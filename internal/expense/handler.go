package expense

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/transport"
	"github.com/cashbookhq/cashbook/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateOneOffExpense(storeID string, dto CreateExpenseDTO) (*Expense, error)
	GetExpense(storeID, id string) (*Expense, error)
	ListExpenses(f Filter, limit, offset int) ([]*Expense, error)
	UpdateExpense(storeID, id string, dto UpdateExpenseDTO) (*Expense, error)
	SumAmount(f Filter) (*Summary, error)
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

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.Service.CreateOneOffExpense(storeID, dto)
	if err != nil {
		h.Logger.Error("CreateExpense: service error", "error", err, "store_id", storeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	e, err := h.Service.GetExpense(storeID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	f, err := filterFromQuery(storeID, r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, offset := paginationParams(r)
	expenses, err := h.Service.ListExpenses(f, limit, offset)
	if err != nil {
		h.Logger.Error("ListExpenses: service error", "error", err, "store_id", storeID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.Service.UpdateExpense(storeID, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	storeID := internal.StoreIDFromContext(r.Context())
	if storeID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	f, err := filterFromQuery(storeID, r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.Service.SumAmount(f)
	if err != nil {
		h.Logger.Error("GetSummary: service error", "error", err, "store_id", storeID)
		h.WriteError(w, http.StatusInternalServerError, "failed to aggregate expenses")
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func filterFromQuery(storeID string, r *http.Request) (Filter, error) {
	f := Filter{
		StoreID:          storeID,
		Category:         r.URL.Query().Get("category"),
		Currency:         r.URL.Query().Get("currency"),
		SourceTemplateID: r.URL.Query().Get("template_id"),
	}

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, internal.NewValidationError("from must be a YYYY-MM-DD date", internal.ErrCodeInvalidDate)
		}
		f.From = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, internal.NewValidationError("to must be a YYYY-MM-DD date", internal.ErrCodeInvalidDate)
		}
		f.To = &t
	}

	return f, nil
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
