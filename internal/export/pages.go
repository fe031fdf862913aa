package export

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidPageRange = errors.New("invalid page range")
	ErrNoSlides         = errors.New("no slides to export")
)

// ParsePageRange resolves a page expression against a template with total
// slides. expr is "all" (or empty), "current", or a comma separated list
// of 1-based pages and inclusive ranges such as "1,3-5". current is the
// zero-based index of the active slide. The result holds 1-based page
// numbers, deduplicated and ascending.
func ParsePageRange(expr string, total, current int) ([]int, error) {
	if total <= 0 {
		return nil, ErrNoSlides
	}

	expr = strings.ToLower(strings.TrimSpace(expr))
	switch expr {
	case "", "all":
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	case "current":
		if current < 0 || current >= total {
			return nil, fmt.Errorf("%w: current slide %d out of range", ErrInvalidPageRange, current+1)
		}
		return []int{current + 1}, nil
	}

	seen := make(map[int]bool)
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		lo, hi, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if lo < 1 || hi > total {
			return nil, fmt.Errorf("%w: %q outside 1-%d", ErrInvalidPageRange, tok, total)
		}
		for p := lo; p <= hi; p++ {
			seen[p] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: %q selects no pages", ErrInvalidPageRange, expr)
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parseToken(tok string) (int, int, error) {
	from, to, isRange := strings.Cut(tok, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPageRange, tok)
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPageRange, tok)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("%w: reversed range %q", ErrInvalidPageRange, tok)
	}
	return lo, hi, nil
}
