package nominationhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/nomination"
	"feedback360/internal/domain/org"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
	"feedback360/internal/transport/http/shared"
)

type Handler struct {
	Service *nomination.Service
}

func NewHandler(service *nomination.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/nominations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermNominationsWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermNominationsWrite)).Post("/classify", h.handleClassify)
		r.With(middleware.RequirePermission(auth.PermNominationsRead)).Get("/mine", h.handleListMine)
		r.With(middleware.RequirePermission(auth.PermNominationsRead)).Get("/assigned", h.handleListAssigned)
		r.With(middleware.RequirePermission(auth.PermNominationsRead)).Get("/{nominationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermNominationsDecide)).Post("/{nominationID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermNominationsDecide)).Post("/{nominationID}/reject", h.handleReject)
	})
}

type candidateRequest struct {
	EmployeeID    string `json:"employeeId"`
	ExternalEmail string `json:"externalEmail"`
}

func (c candidateRequest) candidate() org.Candidate {
	return org.Candidate{EmployeeID: c.EmployeeID, ExternalEmail: c.ExternalEmail}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "no_employee", "account is not linked to an employee", middleware.GetRequestID(r.Context()))
		return
	}

	var payload candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	if payload.EmployeeID == "" && payload.ExternalEmail == "" {
		v.Add("employeeId", "either employeeId or externalEmail is required")
	}
	if payload.EmployeeID != "" && payload.ExternalEmail != "" {
		v.Add("externalEmail", "provide employeeId or externalEmail, not both")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.Create(r.Context(), user.EmployeeID, payload.candidate())
	if err != nil {
		failNomination(w, r, err)
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

// handleClassify previews the relationship for a candidate without
// creating anything. The nomination form uses it to pick the question
// template to show.
func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "no_employee", "account is not linked to an employee", middleware.GetRequestID(r.Context()))
		return
	}

	var payload candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	rel, err := h.Service.Classify(r.Context(), user.EmployeeID, payload.candidate())
	if err != nil {
		failNomination(w, r, err)
		return
	}
	api.Success(w, map[string]string{"relationship": string(rel)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cycleID := r.URL.Query().Get("cycleId")
	if cycleID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_cycle", "cycleId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}
	noms, err := h.Service.ListForRequester(r.Context(), cycleID, user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "nominations_list_failed", "failed to list nominations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, noms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAssigned(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cycleID := r.URL.Query().Get("cycleId")
	if cycleID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_cycle", "cycleId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}
	noms, err := h.Service.ListForReviewer(r.Context(), cycleID, user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "nominations_list_failed", "failed to list nominations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, noms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	n, err := h.Service.Get(r.Context(), chi.URLParam(r, "nominationID"))
	if err != nil {
		failNomination(w, r, err)
		return
	}
	// Requester, reviewer, and HR may read; others get a 404 rather than
	// confirmation the record exists.
	if user.RoleName != auth.RoleHR && user.EmployeeID != n.RequesterID && user.EmployeeID != n.ReviewerID {
		api.Fail(w, http.StatusNotFound, "not_found", "nomination not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	n, err := h.Service.Decide(r.Context(), chi.URLParam(r, "nominationID"), user.EmployeeID, nomination.DecisionApprove, "")
	if err != nil {
		failNomination(w, r, err)
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	n, err := h.Service.Decide(r.Context(), chi.URLParam(r, "nominationID"), user.EmployeeID, nomination.DecisionReject, payload.Reason)
	if err != nil {
		failNomination(w, r, err)
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

// failNomination maps domain errors to response codes shared by every
// nomination endpoint.
func failNomination(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var phaseErr *cycle.PhaseError
	if errors.As(err, &phaseErr) {
		api.FailWithDetails(w, http.StatusConflict, "phase_violation", phaseErr.Error(),
			map[string]any{"currentPhase": phaseErr.Current, "operation": phaseErr.Op}, requestID)
		return
	}
	var classErr *org.ClassificationError
	if errors.As(err, &classErr) {
		api.Fail(w, http.StatusBadRequest, "invalid_candidate", classErr.Error(), requestID)
		return
	}

	switch {
	case errors.Is(err, nomination.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "nomination not found", requestID)
	case errors.Is(err, cycle.ErrNoActiveCycle):
		api.Fail(w, http.StatusConflict, "no_active_cycle", "no active review cycle", requestID)
	case errors.Is(err, cycle.ErrDeadlinePassed):
		api.Fail(w, http.StatusConflict, "deadline_passed", "the nomination deadline has passed", requestID)
	case errors.Is(err, nomination.ErrManagerNomination):
		api.Fail(w, http.StatusUnprocessableEntity, "manager_not_allowed", "your direct manager cannot be nominated", requestID)
	case errors.Is(err, nomination.ErrDuplicateNomination):
		api.Fail(w, http.StatusConflict, "duplicate_nomination", "this reviewer is already nominated", requestID)
	case errors.Is(err, nomination.ErrCapacityExceeded):
		api.Fail(w, http.StatusUnprocessableEntity, "capacity_exceeded", "nomination slots are exhausted", requestID)
	case errors.Is(err, nomination.ErrReviewerOverloaded):
		api.Fail(w, http.StatusUnprocessableEntity, "reviewer_overloaded", "reviewer already carries the maximum load", requestID)
	case errors.Is(err, nomination.ErrExternalNotPermitted):
		api.Fail(w, http.StatusForbidden, "external_not_permitted", "external nominations require a senior level", requestID)
	case errors.Is(err, nomination.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "only the requester's direct manager may decide", requestID)
	case errors.Is(err, nomination.ErrMissingReason):
		api.Fail(w, http.StatusBadRequest, "missing_reason", "a rejection reason is required", requestID)
	case errors.Is(err, nomination.ErrAlreadyDecided):
		api.Fail(w, http.StatusConflict, "already_decided", "nomination has already been decided", requestID)
	case errors.Is(err, nomination.ErrConcurrentModification):
		api.Fail(w, http.StatusConflict, "concurrent_modification", "nomination was modified concurrently, retry", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "nomination_failed", "nomination operation failed", requestID)
	}
}
