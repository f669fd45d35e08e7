package cyclehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/org"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
	"feedback360/internal/transport/http/shared"
)

type Handler struct {
	Service   *cycle.Service
	Templates cycle.TemplateSet
}

func NewHandler(service *cycle.Service, templates cycle.TemplateSet) *Handler {
	return &Handler{Service: service, Templates: templates}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cycles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCyclesRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermCyclesRead)).Get("/active", h.handleActive)
		r.With(middleware.RequirePermission(auth.PermCyclesRead)).Get("/{cycleID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermCyclesRead)).Get("/{cycleID}/questions", h.handleQuestions)
		r.With(middleware.RequirePermission(auth.PermCyclesManage)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermCyclesManage)).Post("/{cycleID}/advance", h.handleAdvance)
		r.With(middleware.RequirePermission(auth.PermCyclesManage)).Post("/{cycleID}/extensions", h.handleExtendDeadline)
		r.With(middleware.RequirePermission(auth.PermCyclesManage)).Get("/{cycleID}/extensions", h.handleListExtensions)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Service.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "cycles_list_failed", "failed to list cycles", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Active(r.Context())
	if err != nil {
		if errors.Is(err, cycle.ErrNoActiveCycle) {
			api.Fail(w, http.StatusNotFound, "no_active_cycle", "no active review cycle", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "cycle_get_failed", "failed to load active cycle", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		if errors.Is(err, cycle.ErrCycleNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "cycle not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "cycle_get_failed", "failed to load cycle", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	rel := org.Relationship(r.URL.Query().Get("relationship"))
	if !rel.Valid() || rel == org.RelationshipManager {
		api.Fail(w, http.StatusBadRequest, "invalid_relationship", "unknown relationship type", middleware.GetRequestID(r.Context()))
		return
	}
	questions, err := h.Service.Questions(r.Context(), chi.URLParam(r, "cycleID"), rel)
	if err != nil {
		if errors.Is(err, cycle.ErrCycleNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "cycle not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "questions_failed", "failed to load questions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, questions, middleware.GetRequestID(r.Context()))
}

type createCycleRequest struct {
	Name               string `json:"name"`
	DisplayName        string `json:"displayName"`
	Year               int    `json:"year"`
	Quarter            string `json:"quarter"`
	NominationDeadline string `json:"nominationDeadline"`
	FeedbackDeadline   string `json:"feedbackDeadline"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	nominationDeadline, _ := v.Date("nominationDeadline", payload.NominationDeadline)
	feedbackDeadline, _ := v.Date("feedbackDeadline", payload.FeedbackDeadline)
	v.DateOrder("nominationDeadline", nominationDeadline, "feedbackDeadline", feedbackDeadline)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.Create(r.Context(), cycle.Cycle{
		Name:               payload.Name,
		DisplayName:        payload.DisplayName,
		Year:               payload.Year,
		Quarter:            payload.Quarter,
		NominationDeadline: nominationDeadline,
		FeedbackDeadline:   feedbackDeadline,
	}, h.Templates, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "cycle_create_failed", "failed to create cycle", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	advanced, err := h.Service.Advance(r.Context(), chi.URLParam(r, "cycleID"), time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, cycle.ErrCycleNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "cycle not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, cycle.ErrCycleClosed):
			api.Fail(w, http.StatusConflict, "cycle_closed", "cycle is already closed", middleware.GetRequestID(r.Context()))
		case errors.Is(err, cycle.ErrStaleCycle):
			api.Fail(w, http.StatusConflict, "concurrent_modification", "cycle was modified concurrently, retry", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "cycle_advance_failed", "failed to advance cycle", middleware.GetRequestID(r.Context()))
		}
		return
	}
	api.Success(w, advanced, middleware.GetRequestID(r.Context()))
}

type extendDeadlineRequest struct {
	EmployeeID  string `json:"employeeId"`
	Kind        string `json:"kind"`
	NewDeadline string `json:"newDeadline"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleExtendDeadline(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload extendDeadlineRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee id is required")
	v.Enum("kind", payload.Kind, []string{cycle.DeadlineNomination, cycle.DeadlineFeedback}, "kind must be nomination or feedback")
	newDeadline, _ := v.Date("newDeadline", payload.NewDeadline)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ext, err := h.Service.ExtendDeadline(r.Context(), cycle.DeadlineExtension{
		CycleID:     chi.URLParam(r, "cycleID"),
		EmployeeID:  payload.EmployeeID,
		Kind:        payload.Kind,
		NewDeadline: newDeadline,
		Reason:      payload.Reason,
		ExtendedBy:  user.UserID,
	})
	if err != nil {
		if errors.Is(err, cycle.ErrCycleNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "cycle not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "extension_failed", "failed to extend deadline", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, ext, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListExtensions(w http.ResponseWriter, r *http.Request) {
	exts, err := h.Service.Extensions(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "extensions_failed", "failed to list extensions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, exts, middleware.GetRequestID(r.Context()))
}
