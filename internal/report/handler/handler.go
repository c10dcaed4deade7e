// Package handler exposes the report REST endpoints. Reports are nested under
// their disaster for listing and flat for moderation and deletion.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"beacon/internal/principal"
	"beacon/internal/report"
	"beacon/internal/transport/http/shared"
	dErrors "beacon/pkg/domain-errors"
)

// Service defines the report operations the handler fronts.
type Service interface {
	Create(ctx context.Context, p principal.Principal, in report.CreateInput) (*report.Report, error)
	Get(ctx context.Context, id string) (*report.Report, error)
	ListByDisaster(ctx context.Context, disasterID string, filter report.ListFilter) ([]*report.Report, error)
	SetStatus(ctx context.Context, p principal.Principal, id string, status report.Status) (*report.Report, error)
	Delete(ctx context.Context, p principal.Principal, id string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the report routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/reports", h.handleCreate)
	r.Get("/reports", h.handleList)
	r.Get("/reports/{id}", h.handleGet)
	r.Put("/reports/{id}/verify", h.handleSetStatus)
	r.Delete("/reports/{id}", h.handleDelete)
	r.Get("/disasters/{id}/reports", h.handleListByDisaster)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "authentication required"))
		return
	}

	var in report.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	rep, err := h.service.Create(ctx, p, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rep)
}

// handleList serves the flat listing form, GET /reports?disaster_id=...
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	disasterID := r.URL.Query().Get("disaster_id")
	if disasterID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "disaster_id is required"))
		return
	}

	filter := report.ListFilter{
		Status: report.Status(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	reports, err := h.service.ListByDisaster(r.Context(), disasterID, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleListByDisaster(w http.ResponseWriter, r *http.Request) {
	filter := report.ListFilter{
		Status: report.Status(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	reports, err := h.service.ListByDisaster(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "authentication required"))
		return
	}

	var body struct {
		Status report.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	rep, err := h.service.SetStatus(ctx, p, chi.URLParam(r, "id"), body.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "authentication required"))
		return
	}

	if err := h.service.Delete(ctx, p, chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
