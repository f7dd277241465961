package appstate

import (
	"fmt"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/viewport"
)

// KeyShortcut describes a keyboard combination that triggers an action.
// Either Rune or Code is set.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// Binding is a registered action as shown in the shortcut bar.
type Binding struct {
	Name  string
	Label string
}

// Keymap maps key presses to named actions.
type Keymap struct {
	actions map[string]func() bool
	keys    map[KeyShortcut]string
	order   []Binding
}

// NewKeymap returns an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{actions: map[string]func() bool{}, keys: map[KeyShortcut]string{}}
}

// Register adds an action. A non-empty label lists it in Bindings.
func (k *Keymap) Register(name, label string, keys KeyboardShortcuts, fn func() bool) {
	if _, dup := k.actions[name]; !dup && label != "" {
		k.order = append(k.order, Binding{Name: name, Label: label})
	}
	k.actions[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			k.keys[sc] = name
		}
	}
}

// Trigger runs the named action and reports whether it changed anything.
func (k *Keymap) Trigger(name string) bool {
	fn, ok := k.actions[name]
	if !ok {
		return false
	}
	return fn()
}

// Lookup finds the action bound to a key event. Runes are matched case
// insensitively; codes are tried when the rune has no binding.
func (k *Keymap) Lookup(e key.Event) (string, bool) {
	if e.Rune > 0 {
		if name, ok := k.keys[KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers}]; ok {
			return name, true
		}
	}
	name, ok := k.keys[KeyShortcut{Code: e.Code, Modifiers: e.Modifiers}]
	return name, ok
}

// Bindings lists labelled actions in registration order.
func (k *Keymap) Bindings() []Binding {
	out := make([]Binding, len(k.order))
	copy(out, k.order)
	return out
}

// panStep is the keyboard pan distance in screen pixels.
const panStep = 10

// RegisterActions binds the editor's own actions into k.
func (m *Machine) RegisterActions(k *Keymap) {
	k.Register("start", "N:start", shortcutList{{Rune: 'n'}, {Code: key.CodeN}}, m.StartPolygon)
	k.Register("finish", "Enter:finish", shortcutList{{Code: key.CodeReturnEnter}, {Code: key.CodeKeypadEnter}}, m.FinishPolygon)
	k.Register("undo", "Bksp:undo", shortcutList{{Code: key.CodeDeleteBackspace}}, m.UndoPoint)
	k.Register("cancel", "Esc:cancel", shortcutList{{Code: key.CodeEscape}}, m.CancelPolygon)
	for i, class := range annotation.Classes {
		class := class
		r := rune('1' + i)
		label := ""
		if i == 0 {
			label = fmt.Sprintf("1-%d:class", len(annotation.Classes))
		}
		k.Register("class"+string(r), label, shortcutList{{Rune: r}}, func() bool { return m.SetCurrentClass(class) })
		k.Register("relabel"+string(r), "", shortcutList{{Rune: r, Modifiers: key.ModAlt}}, func() bool { return m.RelabelSelected(class) })
	}
	k.Register("select-next", "Tab:select", shortcutList{{Code: key.CodeTab}}, m.CycleSelection)
	k.Register("delete", "Del:delete", shortcutList{{Code: key.CodeDeleteForward}}, m.DeleteSelected)
	k.Register("clear", "^L:clear", shortcutList{{Rune: 'l', Modifiers: key.ModControl}, {Code: key.CodeL, Modifiers: key.ModControl}}, m.ClearAll)
	k.Register("reset-view", "0:fit", shortcutList{{Rune: '0'}}, m.ResetView)
	k.Register("zoom-in", "", shortcutList{{Rune: '+'}, {Rune: '='}}, func() bool { return m.Wheel(m.stageCenter(), -1) })
	k.Register("zoom-out", "", shortcutList{{Rune: '-'}}, func() bool { return m.Wheel(m.stageCenter(), 1) })
	k.Register("pan-left", "", shortcutList{{Code: key.CodeLeftArrow}}, func() bool { return m.panKey(panStep, 0) })
	k.Register("pan-right", "", shortcutList{{Code: key.CodeRightArrow}}, func() bool { return m.panKey(-panStep, 0) })
	k.Register("pan-up", "", shortcutList{{Code: key.CodeUpArrow}}, func() bool { return m.panKey(0, panStep) })
	k.Register("pan-down", "", shortcutList{{Code: key.CodeDownArrow}}, func() bool { return m.panKey(0, -panStep) })
}

func (m *Machine) stageCenter() viewport.Point {
	return viewport.Pt(float64(m.stage.X)/2, float64(m.stage.Y)/2)
}

// panKey nudges the view. Like pointer panning it is refused while drawing.
func (m *Machine) panKey(dx, dy float64) bool {
	if !m.Ready() || m.State() != StateIdle {
		return false
	}
	m.view = viewport.PanBy(viewport.Pt(dx, dy), m.view)
	return true
}

// HandleKey dispatches a key press through k.
func (m *Machine) HandleKey(k *Keymap, e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	name, ok := k.Lookup(e)
	if !ok {
		return false
	}
	return k.Trigger(name)
}
