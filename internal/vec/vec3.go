package vec

import "fmt"

// Vec3 представляет координаты ячейки сетки в индексном пространстве.
// Начало координат - угол сетки, все компоненты неотрицательные для валидных ячеек.
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// String возвращает ключ вида "x,y,z"
func (v Vec3) String() string {
	return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z)
}

// InBounds проверяет, что все компоненты лежат в [0, size)
func (v Vec3) InBounds(size int) bool {
	return v.X >= 0 && v.X < size &&
		v.Y >= 0 && v.Y < size &&
		v.Z >= 0 && v.Z < size
}

// DistanceTo возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return float64(dx*dx + dy*dy + dz*dz)
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает другой вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}
