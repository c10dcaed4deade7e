package feeds

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/transport/http/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the feed routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/disasters/{id}/social-media", h.handleSocialMedia)
	r.Get("/disasters/{id}/official-updates", h.handleOfficialUpdates)
}

func (h *Handler) handleSocialMedia(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.SocialMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, posts)
}

func (h *Handler) handleOfficialUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := h.service.OfficialUpdates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updates)
}
