// Package preview управляет «призрачным» кубом - единственной временной
// ячейкой, показывающей, куда попадёт следующее добавление.
// Превью никогда не попадает в хранилище и не отправляется на сервер.
package preview

import (
	"sync"

	"github.com/annel0/voxel-editor/internal/placement"
	"github.com/go-gl/mathgl/mgl64"
)

// State - состояние автомата превью
type State int

const (
	Hidden State = iota
	Showing
)

func (s State) String() string {
	if s == Showing {
		return "showing"
	}
	return "hidden"
}

// Object - полупрозрачный объект превью в сцене
type Object interface {
	SetPosition(p mgl64.Vec3)
	SetVisible(visible bool)
}

type nopObject struct{}

func (nopObject) SetPosition(mgl64.Vec3) {}
func (nopObject) SetVisible(bool)        {}

// Controller - автомат Hidden / Showing(cell)
type Controller struct {
	mu     sync.Mutex
	object Object
	state  State
	cell   mgl64.Vec3
}

// NewController создаёт скрытое превью. object может быть nil.
func NewController(object Object) *Controller {
	if object == nil {
		object = nopObject{}
	}
	object.SetVisible(false)
	return &Controller{object: object, state: Hidden}
}

// Move обрабатывает движение указателя. Превью показывается, только если
// зажат модификатор и резолвер вернул цель добавления.
func (c *Controller) Move(target placement.Target, modifierHeld bool) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !modifierHeld || target.Kind != placement.TargetAdd {
		c.hideLocked()
		return c.state
	}

	c.cell = target.Position
	c.object.SetPosition(target.Position)
	if c.state != Showing {
		c.object.SetVisible(true)
		c.state = Showing
	}
	return c.state
}

// Release вызывается при отпускании модификатора
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hideLocked()
}

func (c *Controller) hideLocked() {
	if c.state == Hidden {
		return
	}
	c.object.SetVisible(false)
	c.state = Hidden
}

// State возвращает текущее состояние
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cell возвращает позицию показанного превью.
// Клик при видимом превью добавляет воксель именно сюда.
func (c *Controller) Cell() (mgl64.Vec3, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Showing {
		return mgl64.Vec3{}, false
	}
	return c.cell, true
}
