package export

import (
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/carousel-studio/designer/internal/document"
)

const (
	defaultLineHeight = 1.2
	boldWeight        = 600

	// glyph masks grow with the square of the size
	maxFontPx = 2048
)

// fontSet holds the parsed Go fonts. Faces are created per size and cached;
// opentype faces are not safe for concurrent use, so every face is guarded
// by the set's mutex.
type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

func newFontSet() (*fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &fontSet{regular: regular, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

// face must be called with fs.mu held.
func (fs *fontSet) face(bold bool, size float64) (font.Face, error) {
	key := faceKey{bold: bold, size: math.Round(size*4) / 4}
	if f, ok := fs.faces[key]; ok {
		return f, nil
	}
	src := fs.regular
	if bold {
		src = fs.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	fs.faces[key] = f
	return f, nil
}

// textBlock is a text run laid out in layer pixels.
type textBlock struct {
	content    string
	size       float64
	bold       bool
	lineHeight float64
	spacing    float64
	align      document.TextAlign
	decoration document.TextDecoration
	box        image.Rectangle // area available to the text
}

type textLine struct {
	words []string
	width fixed.Int26_6
	last  bool // last line of a paragraph
}

// drawText renders the block into an alpha mask covering the whole layer.
func (fs *fontSet) drawText(mask *image.Alpha, tb textBlock) error {
	if strings.TrimSpace(tb.content) == "" || !(tb.size > 0) {
		return nil
	}
	tb.size = math.Min(tb.size, maxFontPx)
	if !finite(tb.spacing, tb.lineHeight) {
		tb.spacing, tb.lineHeight = 0, defaultLineHeight
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	face, err := fs.face(tb.bold, tb.size)
	if err != nil {
		return err
	}
	spacing := fixed.Int26_6(math.Round(tb.spacing * 64))
	lines := wrap(face, tb.content, fixed.I(tb.box.Dx()), spacing)

	lh := tb.lineHeight
	if lh <= 0 {
		lh = defaultLineHeight
	}
	lineStep := tb.size * lh
	m := face.Metrics()
	ascent, descent := float64(m.Ascent)/64, float64(m.Descent)/64
	lead := (lineStep - ascent - descent) / 2

	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face}
	space := measure(face, " ", spacing)
	thickness := math.Max(1, tb.size/15)

	for i, ln := range lines {
		baseline := float64(tb.box.Min.Y) + float64(i)*lineStep + lead + ascent
		if baseline-ascent > float64(tb.box.Max.Y) {
			break
		}

		gap := space
		free := fixed.I(tb.box.Dx()) - ln.width
		x := fixed.I(tb.box.Min.X)
		switch tb.align {
		case document.AlignCenter:
			x += free / 2
		case document.AlignRight:
			x += free
		case document.AlignJustify:
			if !ln.last && len(ln.words) > 1 && free > 0 {
				gap += free / fixed.Int26_6(len(ln.words)-1)
			}
		}

		start := x
		d.Dot = fixed.Point26_6{X: x, Y: fixed.Int26_6(math.Round(baseline * 64))}
		for j, w := range ln.words {
			if j > 0 {
				d.Dot.X += gap
			}
			drawRunes(d, w, spacing)
		}

		switch tb.decoration {
		case document.DecorationUnderline:
			fillRow(mask, start, d.Dot.X, baseline+thickness*1.5, thickness)
		case document.DecorationLineThrough:
			fillRow(mask, start, d.Dot.X, baseline-ascent*0.3, thickness)
		}
	}
	return nil
}

func drawRunes(d *font.Drawer, s string, spacing fixed.Int26_6) {
	if spacing == 0 {
		d.DrawString(s)
		return
	}
	for _, r := range s {
		d.DrawString(string(r))
		d.Dot.X += spacing
	}
}

func measure(face font.Face, s string, spacing fixed.Int26_6) fixed.Int26_6 {
	return font.MeasureString(face, s) + spacing*fixed.Int26_6(utf8.RuneCountInString(s))
}

// wrap breaks content into lines no wider than limit. Explicit newlines start
// a new paragraph; a single word wider than limit gets a line of its own.
func wrap(face font.Face, content string, limit, spacing fixed.Int26_6) []textLine {
	space := measure(face, " ", spacing)
	var lines []textLine
	for _, para := range strings.Split(content, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, textLine{last: true})
			continue
		}
		cur := textLine{}
		for _, w := range words {
			ww := measure(face, w, spacing)
			if len(cur.words) > 0 && cur.width+space+ww > limit {
				lines = append(lines, cur)
				cur = textLine{}
			}
			if len(cur.words) > 0 {
				cur.width += space
			}
			cur.words = append(cur.words, w)
			cur.width += ww
		}
		cur.last = true
		lines = append(lines, cur)
	}
	return lines
}

func fillRow(mask *image.Alpha, x0, x1 fixed.Int26_6, y, thickness float64) {
	r := image.Rect(x0.Round(), int(math.Round(y)), x1.Round(), int(math.Round(y+thickness)))
	r = r.Intersect(mask.Bounds())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			mask.Pix[mask.PixOffset(px, py)] = 0xff
		}
	}
}
