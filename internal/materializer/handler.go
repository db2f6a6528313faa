package materializer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/transport"
	"github.com/cashbookhq/cashbook/pkg/logger"
)

type EngineAPI interface {
	MaterializeDue(ctx context.Context, asOf time.Time) (*Report, error)
}

// Handler exposes the on-demand materialization trigger for job schedulers
// and operators. It is mounted under the internal route group, not the
// tenant-facing API.
type Handler struct {
	*transport.BaseHandler
	Engine EngineAPI
}

// MaterializeRequest optionally pins the batch to a point in time; tests
// and backfills pass it, schedulers leave it empty.
type MaterializeRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

func NewHandler(engine EngineAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Engine:      engine,
	}
}

func (h *Handler) Materialize(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()

	if r.Body != nil && r.ContentLength != 0 {
		var req MaterializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.Logger.Error("Materialize: invalid request body", "error", err)
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.AsOf != nil {
			asOf = *req.AsOf
		}
	}

	report, err := h.Engine.MaterializeDue(r.Context(), asOf)
	if err != nil {
		// The whole batch failed to start; per-template failures come back
		// inside the report instead.
		h.Logger.Error("Materialize: batch failed to start", "error", err)
		if appErr, ok := internal.IsAppError(err); ok {
			h.WriteError(w, appErr.StatusCode, appErr.Message)
			return
		}
		h.WriteError(w, http.StatusServiceUnavailable, "materialization could not start")
		return
	}

	if report.Errors == nil {
		report.Errors = []TemplateError{}
	}
	h.WriteJSON(w, http.StatusOK, report)
}
