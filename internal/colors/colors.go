// Package colors parses CSS color values and normalizes them to the hex/rgba
// forms accepted by the rasterizer.
package colors

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	ErrInvalidColor     = errors.New("invalid color")
	ErrUnsupportedColor = errors.New("unsupported color function")
)

var named = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"lime":        {0, 255, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"cyan":        {0, 255, 255, 255},
	"aqua":        {0, 255, 255, 255},
	"magenta":     {255, 0, 255, 255},
	"fuchsia":     {255, 0, 255, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"silver":      {192, 192, 192, 255},
	"maroon":      {128, 0, 0, 255},
	"olive":       {128, 128, 0, 255},
	"navy":        {0, 0, 128, 255},
	"purple":      {128, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"orange":      {255, 165, 0, 255},
	"pink":        {255, 192, 203, 255},
	"brown":       {165, 42, 42, 255},
	"gold":        {255, 215, 0, 255},
	"indigo":      {75, 0, 130, 255},
	"violet":      {238, 130, 238, 255},
	"coral":       {255, 127, 80, 255},
	"salmon":      {250, 128, 114, 255},
	"tomato":      {255, 99, 71, 255},
	"crimson":     {220, 20, 60, 255},
	"khaki":       {240, 230, 140, 255},
	"beige":       {245, 245, 220, 255},
	"ivory":       {255, 255, 240, 255},
	"lavender":    {230, 230, 250, 255},
	"skyblue":     {135, 206, 235, 255},
	"slategray":   {112, 128, 144, 255},
	"darkgray":    {169, 169, 169, 255},
	"lightgray":   {211, 211, 211, 255},
	"whitesmoke":  {245, 245, 245, 255},
	"transparent": {0, 0, 0, 0},
}

// Parse converts a CSS color string into a non-premultiplied color.
// Supported: named colors, #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba(),
// hsl(), hsla(), lab() and oklch(), in comma or space separated syntax.
func Parse(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return color.NRGBA{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}
	if c, ok := named[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v)
	}

	open := strings.IndexByte(v, '(')
	if open <= 0 || !strings.HasSuffix(v, ")") {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	fn := v[:open]
	args, alpha, err := splitArgs(v[open+1 : len(v)-1])
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}

	var c color.NRGBA
	switch fn {
	case "rgb", "rgba":
		c, err = fromRGB(args)
	case "hsl", "hsla":
		c, err = fromHSL(args)
	case "lab":
		c, err = fromLab(args)
	case "oklch":
		c, err = fromOkLch(args)
	default:
		return color.NRGBA{}, fmt.Errorf("%w: %s()", ErrUnsupportedColor, fn)
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	c.A = alpha
	return c, nil
}

// Normalize returns s as "#rrggbb" for opaque colors, "rgba(r, g, b, a)"
// otherwise.
func Normalize(s string) (string, error) {
	c, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(c), nil
}

// Format renders a color in the normalized form.
func Format(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	a := math.Round(float64(c.A)/255*1000) / 1000
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(a, 'f', -1, 64))
}

// IsNormalized reports whether s is already in hex or rgb()/rgba() form.
func IsNormalized(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(v, "#") || strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba(")
}

// WithOpacity scales the alpha channel of c by opacity in [0,1].
func WithOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity >= 1 {
		return c
	}
	if opacity <= 0 {
		c.A = 0
		return c
	}
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}

// Lerp interpolates between two colors, t in [0,1].
func Lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Equal compares two CSS colors by value; unparseable inputs compare as
// case-insensitive strings.
func Equal(a, b string) bool {
	ca, errA := Parse(a)
	cb, errB := Parse(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return ca == cb
}

func parseHex(v string) (color.NRGBA, error) {
	digits := v[1:]
	switch len(digits) {
	case 3, 6:
		c, err := colorful.Hex(v)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case 4:
		digits = string([]byte{
			digits[0], digits[0], digits[1], digits[1],
			digits[2], digits[2], digits[3], digits[3],
		})
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// splitArgs splits function arguments in either "a, b, c[, d]" or
// "a b c[ / d]" syntax and returns the first three plus the parsed alpha.
func splitArgs(body string) ([]string, uint8, error) {
	var parts []string
	alphaStr := ""
	if strings.Contains(body, ",") {
		for _, p := range strings.Split(body, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
		if len(parts) == 4 {
			alphaStr = parts[3]
			parts = parts[:3]
		}
	} else {
		main := body
		if i := strings.IndexByte(body, '/'); i >= 0 {
			main = body[:i]
			alphaStr = strings.TrimSpace(body[i+1:])
		}
		parts = strings.Fields(main)
	}
	if len(parts) != 3 {
		return nil, 0, fmt.Errorf("expected 3 components, got %d", len(parts))
	}
	alpha := uint8(255)
	if alphaStr != "" {
		a, err := parseUnit(alphaStr, 1)
		if err != nil {
			return nil, 0, err
		}
		alpha = uint8(math.Round(clamp01(a) * 255))
	}
	return parts, alpha, nil
}

// parseUnit parses a number or percentage; percentages map onto [0, scale].
func parseUnit(s string, scale float64) (float64, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return f / 100 * scale, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseHue(s string) (float64, error) {
	s = strings.TrimSuffix(s, "deg")
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h, nil
}

func fromRGB(args []string) (color.NRGBA, error) {
	var out [3]uint8
	for i, a := range args {
		f, err := parseUnit(a, 255)
		if err != nil {
			return color.NRGBA{}, err
		}
		out[i] = uint8(math.Round(math.Max(0, math.Min(255, f))))
	}
	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: 255}, nil
}

func fromHSL(args []string) (color.NRGBA, error) {
	h, err := parseHue(args[0])
	if err != nil {
		return color.NRGBA{}, err
	}
	s, err := parseUnit(args[1], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	l, err := parseUnit(args[2], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	return fromColorful(colorful.Hsl(h, clamp01(s), clamp01(l))), nil
}

func fromLab(args []string) (color.NRGBA, error) {
	l, err := parseUnit(args[0], 100)
	if err != nil {
		return color.NRGBA{}, err
	}
	a, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return color.NRGBA{}, err
	}
	b, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return color.NRGBA{}, err
	}
	return fromColorful(colorful.Lab(l/100, a/100, b/100)), nil
}

func fromOkLch(args []string) (color.NRGBA, error) {
	l, err := parseUnit(args[0], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	c, err := parseUnit(args[1], 0.4)
	if err != nil {
		return color.NRGBA{}, err
	}
	h, err := parseHue(args[2])
	if err != nil {
		return color.NRGBA{}, err
	}
	return fromColorful(colorful.OkLch(clamp01(l), c, h)), nil
}

func fromColorful(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
