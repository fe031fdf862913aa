package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidOptions    = errors.New("invalid export options")
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

const (
	defaultScale   = 1
	defaultQuality = 92
)

// Options controls a single export run.
type Options struct {
	Format       Format  `json:"format" validate:"required"`
	Pages        string  `json:"pages" validate:"max=256"`
	CurrentSlide int     `json:"currentSlide" validate:"gte=0"`
	Scale        float64 `json:"scale" validate:"omitempty,gt=0,lte=4"`
	IncludeGrid  bool    `json:"includeGrid"`
	Quality      int     `json:"quality" validate:"omitempty,min=1,max=100"`
}

var validate = validator.New()

// ParseFormat accepts the format names used by the editor, including "jpg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// normalize validates o and fills defaults.
func (o Options) normalize() (Options, error) {
	f, err := ParseFormat(string(o.Format))
	if err != nil {
		return o, err
	}
	o.Format = f
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return o, fmt.Errorf("%w: %s failed %q", ErrInvalidOptions, verrs[0].Field(), verrs[0].Tag())
		}
		return o, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if o.Scale == 0 {
		o.Scale = defaultScale
	}
	if o.Quality == 0 {
		o.Quality = defaultQuality
	}
	return o, nil
}

func (f Format) ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

func (f Format) contentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}
