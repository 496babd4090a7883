package vmath

import "math"

// Mat4 is a column-major affine matrix.
type Mat4 [16]float64

func IdentityMat4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: IdentityQuat(),
		Scale:    Vec3{X: 1, Y: 1, Z: 1},
	}
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() Mat4 {
	q := t.Rotation
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, xy, xz := q.X*x2, q.X*y2, q.X*z2
	yy, yz, zz := q.Y*y2, q.Y*z2, q.Z*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2
	sx, sy, sz := t.Scale.X, t.Scale.Y, t.Scale.Z

	return Mat4{
		(1 - (yy + zz)) * sx, (xy + wz) * sx, (xz - wy) * sx, 0,
		(xy - wz) * sy, (1 - (xx + zz)) * sy, (yz + wx) * sy, 0,
		(xz + wy) * sz, (yz - wx) * sz, (1 - (xx + yy)) * sz, 0,
		t.Position.X, t.Position.Y, t.Position.Z, 1,
	}
}

// Decompose splits an affine matrix into position, rotation and scale.
// A negative determinant is folded into the X scale.
func Decompose(m Mat4) Transform {
	sx := math.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	sy := math.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])
	sz := math.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])

	det := m[0]*(m[5]*m[10]-m[9]*m[6]) - m[4]*(m[1]*m[10]-m[9]*m[2]) + m[8]*(m[1]*m[6]-m[5]*m[2])
	if det < 0 {
		sx = -sx
	}

	out := Transform{
		Position: Vec3{X: m[12], Y: m[13], Z: m[14]},
		Scale:    Vec3{X: sx, Y: sy, Z: sz},
		Rotation: IdentityQuat(),
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return out
	}

	m11, m21, m31 := m[0]/sx, m[1]/sx, m[2]/sx
	m12, m22, m32 := m[4]/sy, m[5]/sy, m[6]/sy
	m13, m23, m33 := m[8]/sz, m[9]/sz, m[10]/sz
	out.Rotation = quatFromRotation(m11, m12, m13, m21, m22, m23, m31, m32, m33)
	return out
}

func quatFromRotation(m11, m12, m13, m21, m22, m23, m31, m32, m33 float64) Quat {
	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		return Quat{W: 0.25 / s, X: (m32 - m23) * s, Y: (m13 - m31) * s, Z: (m21 - m12) * s}
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		return Quat{W: (m32 - m23) / s, X: 0.25 * s, Y: (m12 + m21) / s, Z: (m13 + m31) / s}
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		return Quat{W: (m13 - m31) / s, X: (m12 + m21) / s, Y: 0.25 * s, Z: (m23 + m32) / s}
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		return Quat{W: (m21 - m12) / s, X: (m13 + m31) / s, Y: (m23 + m32) / s, Z: 0.25 * s}
	}
}
