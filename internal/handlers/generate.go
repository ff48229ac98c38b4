package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eddogola/comic-gen/internal/comic"
	"github.com/eddogola/comic-gen/internal/models"
	"github.com/google/uuid"
)

// maxBodyBytes limits the size of a generate request body
const maxBodyBytes = 64 << 10

// HandleGenerate turns {"prompt": "..."} into a comic. Every failure is
// reported as 500 {"error": "..."}.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	ctx := comic.ContextWithRequestID(r.Context(), requestID)

	var request models.GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		slog.Error("Invalid generate request", "request_id", requestID, "err", err)
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := h.comics.Generate(ctx, request.Prompt)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}
