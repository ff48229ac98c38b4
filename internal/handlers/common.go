package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eddogola/comic-gen/internal/models"
)

// ComicGenerator produces a comic from a story prompt
type ComicGenerator interface {
	Generate(ctx context.Context, prompt string) (*models.Comic, error)
}

type Handler struct {
	comics ComicGenerator
}

func New(comics ComicGenerator) *Handler {
	return &Handler{
		comics: comics,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{Error: message})
}
