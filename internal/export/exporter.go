package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/sync/errgroup"

	"github.com/carousel-studio/designer/internal/document"
)

// File is one export artifact.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter turns templates into PNG, JPEG or PDF files.
type Exporter struct {
	raster  *Rasterizer
	workers int
}

// NewExporter creates an exporter rasterizing up to workers slides at once.
// workers <= 0 uses GOMAXPROCS.
func NewExporter(raster *Rasterizer, workers int) *Exporter {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Exporter{raster: raster, workers: workers}
}

// Export renders the pages selected by opts. PNG and JPEG produce one file
// per page, PDF produces a single multi-page document. Either every
// requested page is rendered or an error is returned with no files.
func (e *Exporter) Export(ctx context.Context, tmpl *document.Template, opts Options) ([]File, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if tmpl == nil || len(tmpl.Slides) == 0 {
		return nil, ErrNoSlides
	}
	if !CanvasFits(tmpl.Size, opts.Scale) {
		return nil, fmt.Errorf("%w: canvas %dx%d at scale %v exceeds %dpx per side",
			ErrInvalidOptions, tmpl.Size.Width, tmpl.Size.Height, opts.Scale, MaxCanvasSide)
	}
	pages, err := ParsePageRange(opts.Pages, len(tmpl.Slides), opts.CurrentSlide)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	images := make([]*image.RGBA, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, page := range pages {
		g.Go(func() (err error) {
			// panics must not escape the worker goroutine
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("render slide %d: panic: %v", page, p)
				}
			}()
			img, err := e.raster.RenderSlide(gctx, &tmpl.Slides[page-1], tmpl.Size, opts.Scale, opts.IncludeGrid)
			if err != nil {
				return fmt.Errorf("render slide %d: %w", page, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	base := fileBase(tmpl.Name)
	var files []File
	if opts.Format == FormatPDF {
		data, err := encodePDF(tmpl, images)
		if err != nil {
			return nil, err
		}
		files = []File{{Name: base + ".pdf", ContentType: opts.Format.contentType(), Data: data}}
	} else {
		files = make([]File, len(images))
		for i, img := range images {
			data, err := encodeImage(img, opts.Format, opts.Quality)
			if err != nil {
				return nil, fmt.Errorf("encode slide %d: %w", pages[i], err)
			}
			files[i] = File{
				Name:        fmt.Sprintf("%s-%d.%s", base, pages[i], opts.Format.ext()),
				ContentType: opts.Format.contentType(),
				Data:        data,
			}
		}
	}

	slog.Info("export rendered", "format", opts.Format, "pages", len(pages), "duration", time.Since(start))
	return files, nil
}

func encodeImage(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if f == FormatJPEG {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodePDF places one slide per page. Page size equals the canvas size
// with one canvas px mapped to one point.
func encodePDF(tmpl *document.Template, images []*image.RGBA) ([]byte, error) {
	w, h := float64(tmpl.Size.Width), float64(tmpl.Size.Height)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(tmpl.Name, true)
	pdf.SetCreator("carousel designer", true)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, img := range images {
		data, err := encodeImage(img, FormatPNG, 0)
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("slide-%d", i+1)
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fileBase turns a template name into a safe file name stem.
func fileBase(name string) string {
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "-")
	if name == "" {
		return "carousel"
	}
	return name
}
