package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/carousel-studio/designer/internal/asset"
	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/engine"
	"github.com/carousel-studio/designer/internal/export"
)

var exportFlags struct {
	format   string
	pages    string
	current  int
	scale    float64
	grid     bool
	quality  int
	outDir   string
	assetDir string
	workers  int
}

var exportCmd = &cobra.Command{
	Use:   "export <template.json>",
	Short: "Rasterize a template to PNG, JPEG or PDF files",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var pagesCmd = &cobra.Command{
	Use:   "pages <expr> <total>",
	Short: "Print the pages selected by a page range expression",
	Args:  cobra.ExactArgs(2),
	RunE:  runPages,
}

var resizeFlags struct {
	preset string
	width  int
	height int
	out    string
}

var resizeCmd = &cobra.Command{
	Use:   "resize <template.json>",
	Short: "Lay a template out for another canvas size",
	Args:  cobra.ExactArgs(1),
	RunE:  runResize,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.format, "format", "f", "png", "output format: png, jpeg or pdf")
	f.StringVarP(&exportFlags.pages, "pages", "p", "all", `pages to export: "all", "current" or a list like "1,3-5"`)
	f.IntVar(&exportFlags.current, "current", 1, "1-based page used by --pages current")
	f.Float64VarP(&exportFlags.scale, "scale", "s", 1, "output pixels per canvas pixel")
	f.BoolVar(&exportFlags.grid, "grid", false, "overlay a rule-of-thirds grid")
	f.IntVarP(&exportFlags.quality, "quality", "q", 0, "JPEG quality 1-100")
	f.StringVarP(&exportFlags.outDir, "out", "o", ".", "output directory")
	f.StringVar(&exportFlags.assetDir, "assets", "./data/assets", "directory holding uploaded assets")
	f.IntVarP(&exportFlags.workers, "workers", "w", 0, "parallel slide renders (0 = one per CPU)")

	r := resizeCmd.Flags()
	r.StringVar(&resizeFlags.preset, "preset", "", "target preset: square, portrait, story, landscape or linkedin")
	r.IntVar(&resizeFlags.width, "width", 0, "target width for a custom size")
	r.IntVar(&resizeFlags.height, "height", 0, "target height for a custom size")
	r.StringVarP(&resizeFlags.out, "out", "o", "", "output file (default stdout)")
}

func readTemplate(path string) (*document.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t document.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return &t, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	tmpl, err := readTemplate(args[0])
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(exportFlags.format)
	if err != nil {
		return err
	}

	resolver := asset.NewResolver(exportFlags.assetDir, &http.Client{Timeout: 30 * time.Second}, time.Minute)
	raster, err := export.NewRasterizer(resolver)
	if err != nil {
		return err
	}
	exporter := export.NewExporter(raster, exportFlags.workers)

	files, err := exporter.Export(cmd.Context(), tmpl, export.Options{
		Format:       format,
		Pages:        exportFlags.pages,
		CurrentSlide: exportFlags.current - 1,
		Scale:        exportFlags.scale,
		IncludeGrid:  exportFlags.grid,
		Quality:      exportFlags.quality,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(exportFlags.outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, f := range files {
		path := filepath.Join(exportFlags.outDir, f.Name)
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		slog.Info("wrote file", "path", path, "size", len(f.Data))
	}
	return nil
}

func runPages(cmd *cobra.Command, args []string) error {
	var total int
	if _, err := fmt.Sscanf(args[1], "%d", &total); err != nil {
		return fmt.Errorf("total must be a number: %q", args[1])
	}
	pages, err := export.ParsePageRange(args[0], total, 0)
	if err != nil {
		return err
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprint(p)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, ","))
	return nil
}

func runResize(cmd *cobra.Command, args []string) error {
	tmpl, err := readTemplate(args[0])
	if err != nil {
		return err
	}

	size := document.CanvasSize{Preset: document.SizeCustom, Width: resizeFlags.width, Height: resizeFlags.height}
	if resizeFlags.preset != "" {
		preset, ok := document.PresetSize(document.SizePreset(resizeFlags.preset))
		if !ok {
			return fmt.Errorf("%w: %s", document.ErrUnknownPreset, resizeFlags.preset)
		}
		size = preset
	}
	if size.Width <= 0 || size.Height <= 0 {
		return document.ErrInvalidSize
	}

	out, err := json.MarshalIndent(engine.Rescale(tmpl, size), "", "  ")
	if err != nil {
		return err
	}
	if resizeFlags.out == "" {
		_, err = cmd.OutOrStdout().Write(append(out, '\n'))
		return err
	}
	return os.WriteFile(resizeFlags.out, out, 0644)
}
