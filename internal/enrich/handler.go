package enrich

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/transport/http/shared"
	dErrors "beacon/pkg/domain-errors"
)

// Handler exposes the standalone verification endpoints so clients can check
// content before attaching it to a report.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/image", h.handleVerifyImage)
	r.Post("/verification/location", h.handleExtractLocation)
}

func (h *Handler) handleVerifyImage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImageURL string `json:"image_url"`
		Context  string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if body.ImageURL == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "image_url is required"))
		return
	}

	raw := h.service.VerifyImage(r.Context(), body.ImageURL, body.Context)
	verdict, _ := ParseVerdict(raw)
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  string(verdict),
		"message": raw,
	})
}

func (h *Handler) handleExtractLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if body.Description == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "description is required"))
		return
	}

	locations := h.service.ExtractLocation(r.Context(), body.Description)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"locations": locations})
}
