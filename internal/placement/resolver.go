// Package placement превращает событие указателя в целевую ячейку
// для добавления или удаления вокселя.
//
// Резолвер чисто геометрический: он не знает о границах сетки,
// цель за пределами сетки отклоняет клиент синхронизации.
package placement

import (
	"math"

	"github.com/annel0/voxel-editor/internal/coords"
	"github.com/go-gl/mathgl/mgl64"
)

// ReferencePlaneY - высота опорной плоскости: на полъединицы ниже пола сетки
const ReferencePlaneY = -0.5

// Intent - намерение пользователя
type Intent int

const (
	IntentAdd Intent = iota
	IntentRemove
)

func (i Intent) String() string {
	switch i {
	case IntentAdd:
		return "add"
	case IntentRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// TargetKind - результат разрешения
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetAdd
	TargetRemove
)

// Target - разрешённая цель в мировых координатах (центр ячейки)
type Target struct {
	Kind     TargetKind
	Position mgl64.Vec3
	// OnGround - цель получена пересечением с опорной плоскостью
	OnGround bool
}

// Found сообщает, есть ли у цели позиция
func (t Target) Found() bool {
	return t.Kind != TargetNone
}

// Query - входные данные одного разрешения
type Query struct {
	Ray        Ray
	Candidates []mgl64.Vec3 // центры занятых ячеек
	Mapper     coords.Mapper
	Intent     Intent
	Opposite   bool // ставить с обратной стороны задетой грани
}

// Resolver вычисляет цель по лучу
type Resolver struct {
	caster RayCaster
}

// NewResolver создаёт резолвер. nil означает встроенный BoxCaster.
func NewResolver(caster RayCaster) *Resolver {
	if caster == nil {
		caster = BoxCaster{}
	}
	return &Resolver{caster: caster}
}

// Resolve возвращает ровно одно из: нет цели, цель добавления, цель удаления
func (r *Resolver) Resolve(q Query) Target {
	if hit, ok := r.caster.CastRay(q.Ray, q.Candidates); ok {
		switch q.Intent {
		case IntentRemove:
			return Target{Kind: TargetRemove, Position: hit.Position}
		default:
			if q.Opposite {
				return Target{Kind: TargetAdd, Position: hit.Position.Sub(hit.Normal)}
			}
			return Target{Kind: TargetAdd, Position: hit.Position.Add(hit.Normal)}
		}
	}

	// Голую землю можно только застраивать
	if q.Intent == IntentRemove {
		return Target{Kind: TargetNone}
	}

	point, ok := intersectReferencePlane(q.Ray)
	if !ok {
		return Target{Kind: TargetNone}
	}
	return Target{
		Kind:     TargetAdd,
		Position: q.Mapper.SnapToCellCenter(point.X(), point.Z()),
		OnGround: true,
	}
}

// ResolvePointer строит луч из камеры и разрешает цель
func (r *Resolver) ResolvePointer(cam Camera, ndc mgl64.Vec2, q Query) Target {
	ray, err := cam.RayFromNDC(ndc)
	if err != nil {
		return Target{Kind: TargetNone}
	}
	q.Ray = ray
	return r.Resolve(q)
}

func intersectReferencePlane(ray Ray) (mgl64.Vec3, bool) {
	dy := ray.Direction.Y()
	if math.Abs(dy) < parallelEps {
		return mgl64.Vec3{}, false
	}
	t := (ReferencePlaneY - ray.Origin.Y()) / dy
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return ray.At(t), true
}
