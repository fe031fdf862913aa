//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/engine"
	"github.com/carousel-studio/designer/internal/pattern"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	carouselEngine := js.Global().Get("Object").New()

	// --- Template lifecycle ---
	carouselEngine.Set("loadTemplate", js.FuncOf(loadTemplate))
	carouselEngine.Set("newBlank", js.FuncOf(newBlank))
	carouselEngine.Set("newFromStarter", js.FuncOf(newFromStarter))
	carouselEngine.Set("getTemplate", js.FuncOf(getTemplate))
	carouselEngine.Set("getStarters", js.FuncOf(getStarters))

	// --- Slides ---
	carouselEngine.Set("setActiveSlide", js.FuncOf(intCommand(eng.SetActiveSlide)))
	carouselEngine.Set("addSlide", js.FuncOf(command(eng.AddSlide)))
	carouselEngine.Set("duplicateSlide", js.FuncOf(intCommand(eng.DuplicateSlide)))
	carouselEngine.Set("deleteSlide", js.FuncOf(intCommand(eng.DeleteSlide)))
	carouselEngine.Set("moveSlide", js.FuncOf(moveSlide))
	carouselEngine.Set("setBackground", js.FuncOf(setBackground))

	// --- Elements ---
	carouselEngine.Set("addElement", js.FuncOf(addElement))
	carouselEngine.Set("updateElement", js.FuncOf(updateElement))
	carouselEngine.Set("duplicateElements", js.FuncOf(command(eng.DuplicateElements)))
	carouselEngine.Set("deleteElements", js.FuncOf(command(eng.DeleteElements)))
	carouselEngine.Set("bringToFront", js.FuncOf(command(eng.BringToFront)))
	carouselEngine.Set("sendToBack", js.FuncOf(command(eng.SendToBack)))
	carouselEngine.Set("setLocked", js.FuncOf(setLocked))
	carouselEngine.Set("setVisible", js.FuncOf(setVisible))
	carouselEngine.Set("commit", js.FuncOf(command(eng.Commit)))

	// --- Selection & grouping ---
	carouselEngine.Set("click", js.FuncOf(click))
	carouselEngine.Set("doubleClick", js.FuncOf(stringCommand(eng.DoubleClick)))
	carouselEngine.Set("clickEmpty", js.FuncOf(command(eng.ClickEmpty)))
	carouselEngine.Set("escape", js.FuncOf(command(eng.Escape)))
	carouselEngine.Set("selectAll", js.FuncOf(command(eng.SelectAll)))
	carouselEngine.Set("setSelection", js.FuncOf(setSelection))
	carouselEngine.Set("group", js.FuncOf(command(eng.Group)))
	carouselEngine.Set("ungroup", js.FuncOf(command(eng.Ungroup)))
	carouselEngine.Set("removeFromGroup", js.FuncOf(stringCommand(eng.RemoveFromGroup)))
	carouselEngine.Set("align", js.FuncOf(align))
	carouselEngine.Set("distribute", js.FuncOf(distribute))

	// --- Pointer operations ---
	carouselEngine.Set("beginDrag", js.FuncOf(beginDrag))
	carouselEngine.Set("beginResize", js.FuncOf(beginResize))
	carouselEngine.Set("beginRotate", js.FuncOf(beginRotate))
	carouselEngine.Set("pointerMove", js.FuncOf(pointerMove))
	carouselEngine.Set("endOperation", js.FuncOf(command(eng.EndOperation)))
	carouselEngine.Set("tick", js.FuncOf(tick))

	// --- Template settings ---
	carouselEngine.Set("setPalette", js.FuncOf(setPalette))
	carouselEngine.Set("setSize", js.FuncOf(setSize))
	carouselEngine.Set("setZoom", js.FuncOf(setZoom))
	carouselEngine.Set("setGuides", js.FuncOf(setGuides))
	carouselEngine.Set("undo", js.FuncOf(undo))
	carouselEngine.Set("redo", js.FuncOf(redo))
	carouselEngine.Set("fillFromGenerated", js.FuncOf(stringCommand(eng.FillFromGenerated)))

	// --- Queries ---
	carouselEngine.Set("render", js.FuncOf(render))
	carouselEngine.Set("hitTest", js.FuncOf(hitTest))
	carouselEngine.Set("getSelection", js.FuncOf(getSelection))
	carouselEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	carouselEngine.Set("getState", js.FuncOf(getState))
	carouselEngine.Set("describePattern", js.FuncOf(describePattern))

	js.Global().Set("carouselEngine", carouselEngine)
	js.Global().Set("carouselWasmReady", js.ValueOf(true))

	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func command(fn func()) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		fn()
		return nil
	}
}

func intCommand(fn func(int)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		fn(args[0].Int())
		return nil
	}
}

func stringCommand(fn func(string)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		fn(args[0].String())
		return nil
	}
}

func stringList(v js.Value) []string {
	if v.Type() != js.TypeObject {
		return nil
	}
	ids := make([]string, v.Length())
	for i := range ids {
		ids[i] = v.Index(i).String()
	}
	return ids
}

func pointer(args []js.Value, at int) engine.Point {
	return engine.Point{X: args[at].Float(), Y: args[at+1].Float()}
}

// --- Template lifecycle ---

func loadTemplate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing template JSON")
	}
	if err := eng.LoadTemplate([]byte(args[0].String())); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func newBlank(this js.Value, args []js.Value) interface{} {
	size := document.CanvasSize{Preset: document.SizeSquare}
	if len(args) > 0 && args[0].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[0].String()), &size); err != nil {
			return fail(err.Error())
		}
	}
	if err := eng.NewBlank(size); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func newFromStarter(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing starter name")
	}
	if err := eng.NewFromStarter(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func getTemplate(this js.Value, args []js.Value) interface{} {
	data, err := eng.TemplateJSON()
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(data)
}

func getStarters(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(document.Starters())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

// --- Slides ---

func moveSlide(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.MoveSlide(args[0].Int(), args[1].Int())
	return nil
}

func setBackground(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing background JSON")
	}
	var bg document.Background
	if err := json.Unmarshal([]byte(args[0].String()), &bg); err != nil {
		return fail(err.Error())
	}
	eng.SetBackground(bg)
	return ok()
}

// --- Elements ---

func addElement(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	var el document.Element
	if err := json.Unmarshal([]byte(args[0].String()), &el); err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.AddElement(el))
}

// updateElement(id, patchJSON, commit) merges the patch into the element.
func updateElement(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("missing element id or patch")
	}
	patch := []byte(args[1].String())
	commit := len(args) > 2 && args[2].Truthy()

	if err := eng.PatchElement(args[0].String(), patch, commit); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setLocked(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetLocked(stringList(args[0]), args[1].Truthy())
	return nil
}

func setVisible(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetVisible(args[0].String(), args[1].Truthy())
	return nil
}

// --- Selection & grouping ---

func click(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Click(args[0].String(), len(args) > 1 && args[1].Truthy())
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		eng.SetSelection(nil)
		return nil
	}
	eng.SetSelection(stringList(args[0]))
	return nil
}

func align(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Align(engine.AlignEdge(args[0].String()))
	return nil
}

func distribute(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Distribute(engine.Direction(args[0].String()), args[1].Float())
	return nil
}

// --- Pointer operations ---

func beginDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.BeginDrag(args[0].String(), pointer(args, 1))
	return nil
}

// beginResize(id, handle, x, y, frameOnly)
func beginResize(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	frameOnly := len(args) > 4 && args[4].Truthy()
	eng.BeginResize(args[0].String(), engine.Handle(args[1].String()), pointer(args, 2), frameOnly)
	return nil
}

func beginRotate(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.BeginRotate(args[0].String(), pointer(args, 1))
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerMove(pointer(args, 0))
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick())
}

// --- Template settings ---

func setPalette(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing palette JSON")
	}
	var p document.Palette
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return fail(err.Error())
	}
	eng.SetPalette(p)
	return ok()
}

// setSize accepts a preset name or a size JSON object.
func setSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing size")
	}
	raw := args[0].String()
	size := document.CanvasSize{Preset: document.SizePreset(raw)}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal([]byte(raw), &size); err != nil {
			return fail(err.Error())
		}
	}
	if err := eng.SetSize(size); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setZoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetZoom(args[0].Float())
	return nil
}

func setGuides(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetGuides(args[0].Truthy())
	return nil
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

// --- Queries ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	data, _ := json.Marshal(eng.Selection())
	return js.ValueOf(string(data))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.RectToJSON(eng.SelectionBounds()))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(map[string]interface{}{
		"activeSlide":   eng.ActiveSlide(),
		"selectionMode": string(eng.SelectionMode()),
		"zoom":          eng.Zoom(),
		"canUndo":       eng.CanUndo(),
		"canRedo":       eng.CanRedo(),
		"inOperation":   eng.InOperation(),
	})
}

func describePattern(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing pattern JSON")
	}
	var p document.Pattern
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return fail(err.Error())
	}
	tile, err := pattern.Describe(p)
	if err != nil {
		return fail(err.Error())
	}
	data, _ := json.Marshal(tile)
	return js.ValueOf(string(data))
}
