package summaryhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/summary"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
)

type Handler struct {
	Service *summary.Service
}

func NewHandler(service *summary.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/summary", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSummaryRead)).Get("/me", h.handleMySummary)
		r.With(middleware.RequirePermission(auth.PermNominationsDecide)).Get("/approval-queue", h.handleApprovalQueue)
		r.With(middleware.RequirePermission(auth.PermSummaryCycle)).Get("/cycles/{cycleID}", h.handleCycleMetrics)
		r.With(middleware.RequirePermission(auth.PermSummaryCycle)).Get("/cycles/{cycleID}/rejections", h.handleRejections)
		r.With(middleware.RequirePermission(auth.PermSummaryCycle)).Get("/cycles/{cycleID}/integrity", h.handleIntegrity)
	})
}

func (h *Handler) handleMySummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cycleID := r.URL.Query().Get("cycleId")
	if cycleID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_cycle", "cycleId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}

	s, err := h.Service.EmployeeSummary(r.Context(), cycleID, user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to build summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, s, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprovalQueue(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cycleID := r.URL.Query().Get("cycleId")
	if cycleID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_cycle", "cycleId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}

	queue, err := h.Service.ApprovalQueue(r.Context(), cycleID, user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "queue_failed", "failed to load approval queue", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, queue, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCycleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Service.CycleMetrics(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		if errors.Is(err, cycle.ErrCycleNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "cycle not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "metrics_failed", "failed to build cycle metrics", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, metrics, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRejections(w http.ResponseWriter, r *http.Request) {
	rejections, err := h.Service.RejectionLog(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rejections_failed", "failed to load rejection log", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rejections, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.Service.Integrity(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "integrity_failed", "failed to run integrity checks", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, warnings, middleware.GetRequestID(r.Context()))
}
