package engine

import (
	"bytes"
	"encoding/json"

	"github.com/carousel-studio/designer/internal/document"
)

// DefaultHistoryCapacity bounds the number of undo entries kept.
const DefaultHistoryCapacity = 100

// snapshot is the part of a template that undo/redo restores. The template
// timestamp is left out so touching it never produces a new entry.
type snapshot struct {
	Slides  []document.Slide    `json:"slides"`
	Palette document.Palette    `json:"palette"`
	Size    document.CanvasSize `json:"size"`
}

// History is a linear undo stack over serialized snapshots with a cursor.
// The entry under the cursor always matches the live template once an
// undo or redo has been applied.
type History struct {
	entries  [][]byte
	cursor   int
	capacity int
}

// NewHistory creates an empty history. A capacity below 2 falls back to
// DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity < 2 {
		capacity = DefaultHistoryCapacity
	}
	return &History{cursor: -1, capacity: capacity}
}

func encodeSnapshot(t *document.Template) ([]byte, error) {
	return json.Marshal(snapshot{Slides: t.Slides, Palette: t.Palette, Size: t.Size})
}

// Reset drops every entry and seeds the history with the current state.
func (h *History) Reset(t *document.Template) error {
	data, err := encodeSnapshot(t)
	if err != nil {
		return err
	}
	h.entries = [][]byte{data}
	h.cursor = 0
	return nil
}

// Commit records the template state. It is a no-op when the serialized
// state equals the entry under the cursor. Entries after the cursor are
// discarded and the oldest entry is dropped when capacity is exceeded.
func (h *History) Commit(t *document.Template) (bool, error) {
	data, err := encodeSnapshot(t)
	if err != nil {
		return false, err
	}
	if h.cursor >= 0 && bytes.Equal(h.entries[h.cursor], data) {
		return false, nil
	}
	h.entries = append(h.entries[:h.cursor+1], data)
	if len(h.entries) > h.capacity {
		drop := len(h.entries) - h.capacity
		h.entries = append([][]byte(nil), h.entries[drop:]...)
	}
	h.cursor = len(h.entries) - 1
	return true, nil
}

// Undo moves the cursor back and writes that snapshot into t.
func (h *History) Undo(t *document.Template) (bool, error) {
	if !h.CanUndo() {
		return false, nil
	}
	if err := restore(t, h.entries[h.cursor-1]); err != nil {
		return false, err
	}
	h.cursor--
	return true, nil
}

// Redo moves the cursor forward and writes that snapshot into t.
func (h *History) Redo(t *document.Template) (bool, error) {
	if !h.CanRedo() {
		return false, nil
	}
	if err := restore(t, h.entries[h.cursor+1]); err != nil {
		return false, err
	}
	h.cursor++
	return true, nil
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.entries)-1 }

// Len returns the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the index of the entry matching the live state.
func (h *History) Cursor() int { return h.cursor }

func restore(t *document.Template, data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Slides = s.Slides
	t.Palette = s.Palette
	t.Size = s.Size
	return nil
}
