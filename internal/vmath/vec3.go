package vmath

import "math"

type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// NearlyEqual compares component-wise within eps.
func (v Vec3) NearlyEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// Quat is a unit rotation quaternion.
type Quat struct {
	X float64
	Y float64
	Z float64
	W float64
}

func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromEuler builds a rotation from XYZ-order Euler angles in degrees.
func QuatFromEuler(deg Vec3) Quat {
	hx := deg.X * math.Pi / 360.0
	hy := deg.Y * math.Pi / 360.0
	hz := deg.Z * math.Pi / 360.0
	c1, s1 := math.Cos(hx), math.Sin(hx)
	c2, s2 := math.Cos(hy), math.Sin(hy)
	c3, s3 := math.Cos(hz), math.Sin(hz)
	return Quat{
		X: s1*c2*c3 + c1*s2*s3,
		Y: c1*s2*c3 - s1*c2*s3,
		Z: c1*c2*s3 + s1*s2*c3,
		W: c1*c2*c3 - s1*s2*s3,
	}
}

// NearlyEqual treats q and -q as the same rotation.
func (q Quat) NearlyEqual(o Quat, eps float64) bool {
	dot := q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
	return math.Abs(math.Abs(dot)-1) <= eps
}
