package physics

import (
	"math"

	"github.com/Versifine/grasp/internal/vmath"
)

type AABB struct {
	MinX float64
	MinY float64
	MinZ float64
	MaxX float64
	MaxY float64
	MaxZ float64
}

// BoxAt returns the box of half extents half centred on center.
func BoxAt(center, half vmath.Vec3) AABB {
	return AABB{
		MinX: center.X - half.X,
		MinY: center.Y - half.Y,
		MinZ: center.Z - half.Z,
		MaxX: center.X + half.X,
		MaxY: center.Y + half.Y,
		MaxZ: center.Z + half.Z,
	}
}

// Touching boxes do not intersect.
func intersects(a, b AABB) bool {
	return a.MinX < b.MaxX &&
		a.MaxX > b.MinX &&
		a.MinY < b.MaxY &&
		a.MaxY > b.MinY &&
		a.MinZ < b.MaxZ &&
		a.MaxZ > b.MinZ
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= CollisionAxisTolerance
}

func normalizeHalf(half vmath.Vec3) vmath.Vec3 {
	if nearlyZero(half.X) && nearlyZero(half.Y) && nearlyZero(half.Z) {
		return vmath.V3(DefaultHalfExtent, DefaultHalfExtent, DefaultHalfExtent)
	}
	return vmath.V3(math.Abs(half.X), math.Abs(half.Y), math.Abs(half.Z))
}
