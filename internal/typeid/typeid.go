package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixTemplate = "tmpl"
	PrefixSlide    = "slide"
	PrefixElement  = "el"
	PrefixAsset    = "asset"
	PrefixExport   = "exp"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewTemplateID() string { return New(PrefixTemplate) }
func NewSlideID() string    { return New(PrefixSlide) }
func NewElementID() string  { return New(PrefixElement) }
func NewAssetID() string    { return New(PrefixAsset) }
func NewExportID() string   { return New(PrefixExport) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

// HasPrefix reports whether id parses as a typeid carrying prefix.
// Legacy templates use free-form ids, so callers treat false as "foreign id"
// rather than an error.
func HasPrefix(id, prefix string) bool {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.Prefix() == prefix
}
