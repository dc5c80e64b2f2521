package placement

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Hit описывает первое пересечение луча с поверхностью вокселя
type Hit struct {
	Position mgl64.Vec3 // центр задетого вокселя
	Normal   mgl64.Vec3 // внешняя единичная нормаль грани
	Distance float64
	Index    int // индекс кандидата во входном списке
}

// RayCaster - узкий интерфейс поставщика пересечений луча.
// Кандидаты - центры единичных кубов.
type RayCaster interface {
	CastRay(ray Ray, candidates []mgl64.Vec3) (Hit, bool)
}

// BoxCaster пересекает луч с осевыми единичными кубами (метод плит).
// Кубы, внутри которых находится начало луча, не учитываются.
type BoxCaster struct{}

// CastRay возвращает ближайшее пересечение. При равных расстояниях
// побеждает кандидат, идущий раньше во входном списке.
func (BoxCaster) CastRay(ray Ray, candidates []mgl64.Vec3) (Hit, bool) {
	hits := make([]Hit, 0, 4)
	for i, center := range candidates {
		if h, ok := intersectUnitBox(ray, center); ok {
			h.Index = i
			hits = append(hits, h)
		}
	}
	if len(hits) == 0 {
		return Hit{}, false
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits[0], true
}

const parallelEps = 1e-12

func intersectUnitBox(ray Ray, center mgl64.Vec3) (Hit, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	axis := -1

	for i := 0; i < 3; i++ {
		o := ray.Origin[i]
		d := ray.Direction[i]
		lo := center[i] - 0.5
		hi := center[i] + 0.5

		if math.Abs(d) < parallelEps {
			if o < lo || o > hi {
				return Hit{}, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return Hit{}, false
		}
	}

	if axis < 0 || tmin < 0 {
		return Hit{}, false
	}

	var normal mgl64.Vec3
	if ray.Direction[axis] > 0 {
		normal[axis] = -1
	} else {
		normal[axis] = 1
	}

	return Hit{
		Position: center,
		Normal:   normal,
		Distance: tmin,
	}, true
}
