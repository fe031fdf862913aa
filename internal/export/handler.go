package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carousel-studio/designer/internal/asset"
	"github.com/carousel-studio/designer/internal/colors"
	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/pattern"
	"github.com/carousel-studio/designer/internal/typeid"
)

const maxRequestSize = 50 << 20 // 50MB, templates may embed data urls

// Request is the body of POST /export.
type Request struct {
	Template *document.Template `json:"template"`
	Options
}

type Handler struct {
	exporter *Exporter
}

func NewHandler(exporter *Exporter) *Handler {
	return &Handler{exporter: exporter}
}

// Export handles POST /export. A single resulting file is returned as is;
// several PNG/JPEG files are bundled into a zip archive.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Template == nil {
		http.Error(w, "missing template", http.StatusBadRequest)
		return
	}

	exportID := typeid.NewExportID()
	log := slog.With("export", exportID, "template", req.Template.ID)
	log.Info("export started", "format", req.Format, "pages", req.Pages, "scale", req.Scale)

	files, err := h.exporter.Export(r.Context(), req.Template, req.Options)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("export failed", "error", err)
			http.Error(w, "export failed", status)
			return
		}
		log.Warn("export rejected", "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	name, contentType, body := files[0].Name, files[0].ContentType, files[0].Data
	if len(files) > 1 {
		body, err = archive(files)
		if err != nil {
			log.Error("build archive", "error", err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		name, contentType = fileBase(req.Template.Name)+".zip", "application/zip"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Export-ID", exportID)
	w.Write(body)

	log.Info("export complete", "files", len(files), "size", len(body))
}

// statusFor maps caller mistakes to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPageRange),
		errors.Is(err, ErrNoSlides),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrInvalidOptions),
		errors.Is(err, colors.ErrInvalidColor),
		errors.Is(err, colors.ErrUnsupportedColor),
		errors.Is(err, pattern.ErrUnknownPattern),
		errors.Is(err, asset.ErrUnsupportedSource),
		errors.Is(err, asset.ErrAssetNotFound),
		errors.Is(err, asset.ErrImageTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func archive(files []File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
