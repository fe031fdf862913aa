package engine

import (
	"math"

	"github.com/carousel-studio/designer/internal/document"
)

// An element counts as a full-canvas background when it covers this share
// of both source dimensions and starts within backgroundOrigin of each axis.
// The classification is approximate: large foreground shapes parked near the
// origin are stretched too.
const (
	backgroundCoverage = 0.9
	backgroundOrigin   = 0.1
)

// Rescale returns a copy of src laid out for the target canvas size.
// Content is scaled uniformly by min(tw/sw, th/sh) and centered; background
// elements are stretched to fill the new canvas instead. Callers must always
// pass the pre-scaling original to avoid compounding rounding error.
func Rescale(src *document.Template, target document.CanvasSize) *document.Template {
	out := src.Clone()
	out.Size = target
	if src.Size.SameDimensions(target) || src.Size.Width <= 0 || src.Size.Height <= 0 ||
		target.Width <= 0 || target.Height <= 0 {
		return out
	}

	sw, sh := float64(src.Size.Width), float64(src.Size.Height)
	tw, th := float64(target.Width), float64(target.Height)
	scale := math.Min(tw/sw, th/sh)
	offX := (tw - sw*scale) / 2
	offY := (th - sh*scale) / 2

	if out.Margin != nil {
		m := out.Margin.Scaled(scale)
		out.Margin = &m
	}

	for si := range out.Slides {
		for ei := range out.Slides[si].Elements {
			el := &out.Slides[si].Elements[ei]
			if isBackground(el, sw, sh) {
				el.X, el.Y, el.Width, el.Height = 0, 0, tw, th
			} else {
				el.X = math.Round(el.X*scale + offX)
				el.Y = math.Round(el.Y*scale + offY)
				el.Width = math.Round(el.Width * scale)
				el.Height = math.Round(el.Height * scale)
				clampToCanvas(el, tw, th)
			}
			scaleStyle(el, scale)
		}
	}
	return out
}

func isBackground(el *document.Element, sw, sh float64) bool {
	return el.Width >= backgroundCoverage*sw &&
		el.Height >= backgroundCoverage*sh &&
		el.X <= backgroundOrigin*sw &&
		el.Y <= backgroundOrigin*sh
}

func clampToCanvas(el *document.Element, tw, th float64) {
	el.Width = math.Min(el.Width, tw)
	el.Height = math.Min(el.Height, th)
	el.X = clamp(el.X, 0, tw-el.Width)
	el.Y = clamp(el.Y, 0, th-el.Height)
}

func scaleStyle(el *document.Element, scale float64) {
	switch el.Kind {
	case document.KindText:
		if el.Text == nil {
			return
		}
		el.Text.Style.FontSize = math.Max(1, math.Round(el.Text.Style.FontSize*scale))
		el.Text.Padding = el.Text.Padding.Scaled(scale)
		el.Text.Margin = el.Text.Margin.Scaled(scale)
	case document.KindShape:
		if el.Shape == nil {
			return
		}
		s := el.Shape
		if s.Stroke.Width > 0 {
			s.Stroke.Width = math.Max(1, math.Round(s.Stroke.Width*scale))
		}
		s.BorderRadius = math.Round(s.BorderRadius * scale)
		for i := range s.Stroke.Dash {
			s.Stroke.Dash[i] = math.Round(s.Stroke.Dash[i] * scale)
		}
		for _, a := range []*document.ArrowHead{s.StartArrow, s.EndArrow} {
			if a != nil && a.Size > 0 {
				a.Size = math.Round(a.Size * scale)
			}
		}
	case document.KindImage:
	}
}
