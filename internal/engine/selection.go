package engine

import (
	"slices"

	"github.com/carousel-studio/designer/internal/document"
)

type SelectionMode string

const (
	SelectNone   SelectionMode = "none"
	SelectSingle SelectionMode = "single"
	SelectMulti  SelectionMode = "multi"
)

// Selection is an ordered set of element ids on the active slide.
type Selection struct {
	ids []string
}

// Mode derives the state machine position from the set size.
func (s *Selection) Mode() SelectionMode {
	switch len(s.ids) {
	case 0:
		return SelectNone
	case 1:
		return SelectSingle
	default:
		return SelectMulti
	}
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Has(id string) bool {
	return slices.Contains(s.ids, id)
}

// Set replaces the selection, dropping duplicate ids.
func (s *Selection) Set(ids ...string) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	s.ids = out
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id string) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	s.ids = append(s.ids, id)
}

func (s *Selection) Clear() {
	s.ids = nil
}

// retain keeps only the ids for which keep returns true.
func (s *Selection) retain(keep func(id string) bool) {
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !keep(id) })
}

// Click handles a pointer click on an element. A plain click selects the
// element, or its whole group when it carries a group id. With the
// modifier held the element is toggled in or out of the selection.
// Clicks on locked, hidden or unknown elements are ignored.
func (e *Engine) Click(id string, modifier bool) {
	slide := e.activeSlide()
	if slide == nil {
		return
	}
	el, ok := slide.Element(id)
	if !ok || el.Locked || !el.Visible {
		return
	}
	if modifier {
		e.selection.Toggle(id)
		return
	}
	if el.GroupID != "" {
		e.selection.Set(slide.GroupMembers(el.GroupID)...)
		return
	}
	e.selection.Set(id)
}

// DoubleClick selects a single element even when it belongs to a group.
func (e *Engine) DoubleClick(id string) {
	slide := e.activeSlide()
	if slide == nil {
		return
	}
	el, ok := slide.Element(id)
	if !ok || el.Locked || !el.Visible {
		return
	}
	e.selection.Set(id)
}

// ClickEmpty handles a click on the bare canvas.
func (e *Engine) ClickEmpty() {
	e.selection.Clear()
}

// Escape clears the selection.
func (e *Engine) Escape() {
	e.selection.Clear()
}

// SelectAll selects every unlocked, visible element of the active slide.
func (e *Engine) SelectAll() {
	slide := e.activeSlide()
	if slide == nil {
		return
	}
	var ids []string
	for _, i := range slide.PaintOrder() {
		el := slide.Elements[i]
		if !el.Locked && el.Visible {
			ids = append(ids, el.ID)
		}
	}
	e.selection.Set(ids...)
}

// SetSelection replaces the selection with ids that exist on the active slide.
func (e *Engine) SetSelection(ids []string) {
	e.selection.Set(ids...)
	e.pruneSelection()
}

// Selection returns the selected element ids.
func (e *Engine) Selection() []string {
	return e.selection.IDs()
}

// SelectionMode returns the current selection state.
func (e *Engine) SelectionMode() SelectionMode {
	return e.selection.Mode()
}

// SelectionBounds returns the union of the rotated bounds of the selection.
func (e *Engine) SelectionBounds() Rect {
	slide := e.activeSlide()
	if slide == nil {
		return Rect{}
	}
	return SelectionBounds(slide, e.selection.ids)
}

func (e *Engine) pruneSelection() {
	slide := e.activeSlide()
	if slide == nil {
		e.selection.Clear()
		return
	}
	e.selection.retain(func(id string) bool { return slide.FindElement(id) >= 0 })
}

// targets returns the selected elements that may be edited: present on
// the active slide and unlocked. The order follows the selection.
func (e *Engine) targets() []*document.Element {
	slide := e.activeSlide()
	if slide == nil {
		return nil
	}
	var out []*document.Element
	for _, id := range e.selection.ids {
		if el, ok := slide.Element(id); ok && !el.Locked {
			out = append(out, el)
		}
	}
	return out
}
