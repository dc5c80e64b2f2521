package editor

import (
	"github.com/annel0/voxel-editor/internal/placement"
)

// EventKind - тип события ввода
type EventKind int

const (
	PointerMove EventKind = iota
	PointerDown
	KeyUp
)

// Modifiers - зажатые клавиши-модификаторы
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

// InputEvent - событие указателя или клавиатуры в пикселях окна
type InputEvent struct {
	Kind EventKind
	X, Y float64
	Key  string
	Mods Modifiers
}

// KeyShift - имя клавиши Shift в событиях KeyUp
const KeyShift = "Shift"

// Translate переводит событие ввода в команду.
//   - движение с Shift - превью (Alt - обратная грань), без Shift - скрыть превью;
//   - отпускание Shift - скрыть превью;
//   - нажатие с Shift - добавить, с Ctrl - удалить, иначе ничего.
func Translate(ev InputEvent, width, height float64) (Command, bool) {
	pointer := placement.PointerToNDC(ev.X, ev.Y, width, height)

	switch ev.Kind {
	case PointerMove:
		if ev.Mods.Shift {
			return ShowPreview{Pointer: pointer, Opposite: ev.Mods.Alt}, true
		}
		return HidePreview{}, true
	case KeyUp:
		if ev.Key == KeyShift {
			return HidePreview{}, true
		}
	case PointerDown:
		switch {
		case ev.Mods.Shift:
			return AddVoxel{Pointer: pointer, Opposite: ev.Mods.Alt}, true
		case ev.Mods.Ctrl:
			return RemoveVoxel{Pointer: pointer}, true
		}
	}
	return nil, false
}
