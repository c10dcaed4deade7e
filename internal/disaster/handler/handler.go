// Package handler exposes the disaster REST endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"beacon/internal/disaster"
	"beacon/internal/principal"
	"beacon/internal/transport/http/shared"
	dErrors "beacon/pkg/domain-errors"
)

// Service defines the disaster operations the handler fronts.
type Service interface {
	Create(ctx context.Context, p principal.Principal, in disaster.CreateInput) (*disaster.Disaster, error)
	Get(ctx context.Context, id string) (*disaster.Disaster, error)
	List(ctx context.Context, filter disaster.ListFilter) ([]*disaster.Disaster, error)
	Update(ctx context.Context, p principal.Principal, id string, in disaster.UpdateInput) (*disaster.Disaster, error)
	Delete(ctx context.Context, p principal.Principal, id string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the disaster routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/disasters", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "authentication required"))
		return
	}

	var in disaster.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	d, err := h.service.Create(ctx, p, in)
	if err != nil {
		h.logError(ctx, "create disaster failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := disaster.ListFilter{
		Tag:    r.URL.Query().Get("tag"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	disasters, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logError(r.Context(), "list disasters failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, disasters)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "authentication required"))
		return
	}

	var in disaster.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	d, err := h.service.Update(ctx, p, chi.URLParam(r, "id"), in)
	if err != nil {
		h.logError(ctx, "update disaster failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "authentication required"))
		return
	}

	if err := h.service.Delete(ctx, p, chi.URLParam(r, "id")); err != nil {
		h.logError(ctx, "delete disaster failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInvalidInput {
		return
	}
	h.logger.ErrorContext(ctx, msg, "error", err)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
