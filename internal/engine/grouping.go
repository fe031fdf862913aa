package engine

import (
	"strconv"

	"github.com/carousel-studio/designer/internal/document"
)

// Group labels every selected element with a fresh group id. It requires
// at least two selected elements, none of which may already be grouped.
// Positions are left untouched.
func (e *Engine) Group() {
	slide := e.activeSlide()
	if slide == nil || e.selection.Len() < 2 {
		return
	}
	var members []*document.Element
	for _, id := range e.selection.ids {
		el, ok := slide.Element(id)
		if !ok {
			continue
		}
		if el.GroupID != "" {
			return
		}
		members = append(members, el)
	}
	if len(members) < 2 {
		return
	}
	groupID := e.tmpl.NextGroupID()
	for _, el := range members {
		el.GroupID = groupID
	}
	e.commit()
}

// Ungroup clears the group id from every element sharing a group with
// any selected element.
func (e *Engine) Ungroup() {
	slide := e.activeSlide()
	if slide == nil {
		return
	}
	touched := make(map[string]struct{})
	for _, id := range e.selection.ids {
		if el, ok := slide.Element(id); ok && el.GroupID != "" {
			touched[el.GroupID] = struct{}{}
		}
	}
	if len(touched) == 0 {
		return
	}
	for i := range slide.Elements {
		if _, ok := touched[slide.Elements[i].GroupID]; ok {
			slide.Elements[i].GroupID = ""
		}
	}
	e.commit()
}

// RemoveFromGroup clears the group id of a single element. A group left
// with one member is dissolved.
func (e *Engine) RemoveFromGroup(id string) {
	slide := e.activeSlide()
	if slide == nil {
		return
	}
	el, ok := slide.Element(id)
	if !ok || el.GroupID == "" {
		return
	}
	el.GroupID = ""
	document.NormalizeGroups(slide)
	e.commit()
}

// remapGroups gives every group in els a fresh label so copies never join
// the group of their source.
func remapGroups(t *document.Template, els []document.Element) {
	next, _ := document.GroupNumber(t.NextGroupID())
	labels := make(map[string]string)
	for i := range els {
		old := els[i].GroupID
		if old == "" {
			continue
		}
		label, ok := labels[old]
		if !ok {
			label = groupLabel(next)
			labels[old] = label
			next++
		}
		els[i].GroupID = label
	}
}

func groupLabel(n int) string {
	return document.GroupPrefix + strconv.Itoa(n)
}
