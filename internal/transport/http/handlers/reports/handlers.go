package reportshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/reports"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsExport)).Get("/cycles/{cycleID}/progress.pdf", h.handleCycleProgress)
	})
}

func (h *Handler) handleCycleProgress(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.CycleProgressPDF(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		if errors.Is(err, cycle.ErrCycleNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "cycle not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to generate report", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="cycle-progress.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
