package geocode

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/transport/http/shared"
	dErrors "beacon/pkg/domain-errors"
)

// Handler exposes direct geocoding for clients that resolve place names
// before submitting an entity.
type Handler struct {
	resolver *Resolver
	logger   *slog.Logger
}

func NewHandler(resolver *Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// Register mounts the geocoding route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/geocoding", h.handleGeocode)
}

func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	locationName := r.URL.Query().Get("location_name")
	if locationName == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "location_name query parameter is required"))
		return
	}

	coords, ok := h.resolver.Geocode(r.Context(), locationName)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "could not resolve coordinates for the given location"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, coords)
}
