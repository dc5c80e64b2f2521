package placement

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray - луч в мировых координатах. Direction нормирован.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At возвращает точку луча на расстоянии t
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Camera - перспективная камера, из которой строятся лучи выбора
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	FovY     float64 // градусы
	Aspect   float64
	Near     float64
	Far      float64
}

// DefaultCamera возвращает камеру, смотрящую на сетку размера size сверху-сбоку
func DefaultCamera(size int, aspect float64) Camera {
	s := float64(size)
	return Camera{
		Position: mgl64.Vec3{s / 2, s / 2, s * 2},
		Target:   mgl64.Vec3{s / 2, 0, s / 2},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     75,
		Aspect:   aspect,
		Near:     0.1,
		Far:      1000,
	}
}

// View возвращает видовую матрицу
func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// Projection возвращает матрицу проекции
func (c Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// PointerToNDC переводит пиксельные координаты указателя в нормализованные
// координаты устройства: x,y ∈ [-1, 1], ось Y направлена вверх
func PointerToNDC(px, py, width, height float64) mgl64.Vec2 {
	return mgl64.Vec2{
		px/width*2 - 1,
		-(py/height)*2 + 1,
	}
}

// RayFromNDC строит луч из камеры через точку в NDC
func (c Camera) RayFromNDC(ndc mgl64.Vec2) (Ray, error) {
	view := c.View()
	proj := c.Projection()

	// Окно 2×2 пикселя: координата окна = ndc + 1
	win := mgl64.Vec3{ndc.X() + 1, ndc.Y() + 1, 0}
	near, err := mgl64.UnProject(win, view, proj, 0, 0, 2, 2)
	if err != nil {
		return Ray{}, fmt.Errorf("unproject near: %w", err)
	}
	win[2] = 1
	far, err := mgl64.UnProject(win, view, proj, 0, 0, 2, 2)
	if err != nil {
		return Ray{}, fmt.Errorf("unproject far: %w", err)
	}

	dir := far.Sub(near)
	if dir.Len() == 0 {
		return Ray{}, fmt.Errorf("вырожденный луч")
	}
	return Ray{Origin: c.Position, Direction: dir.Normalize()}, nil
}
