// Package handler exposes the resource REST endpoints, including the
// proximity matcher at /disasters/{id}/resources/nearby.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"beacon/internal/geocode"
	"beacon/internal/principal"
	"beacon/internal/resource"
	"beacon/internal/transport/http/shared"
	dErrors "beacon/pkg/domain-errors"
)

// Service defines the resource operations the handler fronts.
type Service interface {
	Create(ctx context.Context, p principal.Principal, in resource.CreateInput) (*resource.Resource, error)
	ListByDisaster(ctx context.Context, disasterID string, filter resource.ListFilter) ([]*resource.Resource, error)
	FindNearby(ctx context.Context, disasterID string, point geocode.Coordinates, radiusMeters float64) ([]*resource.Match, error)
	Delete(ctx context.Context, p principal.Principal, id string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the resource routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/resources", h.handleCreate)
	r.Delete("/resources/{id}", h.handleDelete)
	r.Get("/disasters/{id}/resources", h.handleListByDisaster)
	r.Get("/disasters/{id}/resources/nearby", h.handleFindNearby)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "authentication required"))
		return
	}

	var in resource.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	res, err := h.service.Create(ctx, p, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleListByDisaster(w http.ResponseWriter, r *http.Request) {
	filter := resource.ListFilter{
		Type:   r.URL.Query().Get("type"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	resources, err := h.service.ListByDisaster(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resources)
}

func (h *Handler) handleFindNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "lat and lng query parameters are required"))
		return
	}

	var radius float64
	if raw := q.Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "radius must be a positive number of meters"))
			return
		}
		radius = parsed
	}

	matches, err := h.service.FindNearby(r.Context(), chi.URLParam(r, "id"), geocode.Coordinates{Lat: lat, Lng: lng}, radius)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, matches)
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
