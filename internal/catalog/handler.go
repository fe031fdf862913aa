// Package catalog serves the built-in starter templates and the
// server-side canvas resize used by clients without the wasm engine.
package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/engine"
)

const maxTemplateSize = 50 << 20

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// List handles GET /templates.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, document.Starters())
}

// Get handles GET /templates/{name} and returns a fresh instance.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	t, err := document.NewStarterTemplate(name)
	if err != nil {
		if errors.Is(err, document.ErrUnknownStarter) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
			return
		}
		slog.Error("build starter", "name", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type resizeRequest struct {
	Template *document.Template `json:"template"`
	Size     document.CanvasSize `json:"size"`
}

// Resize handles POST /templates/resize. The template in the body must be
// the pre-scaling original.
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTemplateSize)

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Template == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := req.Template.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	size := req.Size
	if size.Width <= 0 || size.Height <= 0 {
		preset, ok := document.PresetSize(size.Preset)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": document.ErrUnknownPreset.Error()})
			return
		}
		size = preset
	}

	writeJSON(w, http.StatusOK, engine.Rescale(req.Template, size))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
