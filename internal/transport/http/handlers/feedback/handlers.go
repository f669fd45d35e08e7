package feedbackhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/feedback"
	"feedback360/internal/domain/nomination"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
)

type Handler struct {
	Service *feedback.Service
}

func NewHandler(service *feedback.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feedback", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite)).Get("/{nominationID}/draft", h.handleGetDraft)
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite)).Put("/{nominationID}/draft", h.handleSaveDraft)
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite)).Post("/{nominationID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermFeedbackRead)).Get("/received", h.handleReceived)
	})
}

type answersPayload struct {
	Answers map[string]feedback.Answer `json:"answers"`
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	draft, err := h.Service.Draft(r.Context(), chi.URLParam(r, "nominationID"), user.EmployeeID)
	if err != nil {
		failFeedback(w, r, err)
		return
	}
	api.Success(w, answersPayload{Answers: draft}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload answersPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	n, err := h.Service.SaveDraft(r.Context(), chi.URLParam(r, "nominationID"), user.EmployeeID, payload.Answers)
	if err != nil {
		failFeedback(w, r, err)
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload answersPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	resp, err := h.Service.Submit(r.Context(), chi.URLParam(r, "nominationID"), user.EmployeeID, payload.Answers)
	if err != nil {
		failFeedback(w, r, err)
		return
	}
	api.Created(w, resp, middleware.GetRequestID(r.Context()))
}

// handleReceived returns the caller's own feedback with reviewer
// identities withheld.
func (h *Handler) handleReceived(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cycleID := r.URL.Query().Get("cycleId")
	if cycleID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_cycle", "cycleId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}

	received, err := h.Service.Received(r.Context(), cycleID, user.EmployeeID)
	if err != nil {
		failFeedback(w, r, err)
		return
	}
	api.Success(w, received, middleware.GetRequestID(r.Context()))
}

func failFeedback(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var phaseErr *cycle.PhaseError
	if errors.As(err, &phaseErr) {
		api.FailWithDetails(w, http.StatusConflict, "phase_violation", phaseErr.Error(),
			map[string]any{"currentPhase": phaseErr.Current, "operation": phaseErr.Op}, requestID)
		return
	}

	switch {
	case errors.Is(err, nomination.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "nomination not found", requestID)
	case errors.Is(err, cycle.ErrDeadlinePassed):
		api.Fail(w, http.StatusConflict, "deadline_passed", "the feedback deadline has passed", requestID)
	case errors.Is(err, nomination.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "only the assigned reviewer may act on this nomination", requestID)
	case errors.Is(err, nomination.ErrNotApproved):
		api.Fail(w, http.StatusConflict, "not_approved", "nomination has not been approved", requestID)
	case errors.Is(err, nomination.ErrAlreadyCompleted):
		api.Fail(w, http.StatusConflict, "already_completed", "feedback has already been submitted", requestID)
	case errors.Is(err, nomination.ErrConcurrentModification):
		api.Fail(w, http.StatusConflict, "concurrent_modification", "nomination was modified concurrently, retry", requestID)
	case errors.Is(err, feedback.ErrIncompleteAnswers):
		api.Fail(w, http.StatusUnprocessableEntity, "incomplete_answers", "all required questions must be answered", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "feedback_failed", "feedback operation failed", requestID)
	}
}
