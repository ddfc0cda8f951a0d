// Package kinematics models articulated figures: rotational degrees of
// freedom (Dofs), joints that compose them into local transforms, a skeleton
// arena linking joints into a tree, range coupling between Dofs, and an
// iterative inverse-kinematics chain solver.
//
// All angles are radians. Dof positions are normalized to [0, 1] across the
// Dof's current angular range.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mat4 is a 4x4 homogeneous transformation matrix.
// Format: [[r00,r01,r02,tx], [r10,r11,r12,ty], [r20,r21,r22,tz], [0,0,0,1]]
//
// Points are column vectors, so A.Mul(B) applied to p transforms by B first.
type Mat4 [4][4]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate returns a pure translation by v.
func Translate(v r3.Vec) Mat4 {
	m := Identity()
	m[0][3], m[1][3], m[2][3] = v.X, v.Y, v.Z
	return m
}

// Rotate returns a rotation of angle radians around axis (through the origin).
// The axis must be non-zero; it does not need to be normalized.
func Rotate(axis r3.Vec, angle float64) Mat4 {
	axis = r3.Unit(axis)
	x := r3.Rotate(r3.Vec{X: 1}, angle, axis)
	y := r3.Rotate(r3.Vec{Y: 1}, angle, axis)
	z := r3.Rotate(r3.Vec{Z: 1}, angle, axis)
	return Mat4{
		{x.X, y.X, z.X, 0},
		{x.Y, y.Y, z.Y, 0},
		{x.Z, y.Z, z.Z, 0},
		{0, 0, 0, 1},
	}
}

// RotateAbout returns a rotation of angle radians around the line through
// center with direction axis.
func RotateAbout(center, axis r3.Vec, angle float64) Mat4 {
	return Translate(center).Mul(Rotate(axis, angle)).Mul(Translate(r3.Scale(-1, center)))
}

// Mul returns m·n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i][k] * n[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Apply transforms the point p.
func (m Mat4) Apply(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// ApplyDir transforms the direction v (translation ignored).
func (m Mat4) ApplyDir(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// UnapplyDir transforms v by the transpose of the rotation part, which is
// the inverse for rigid transforms.
func (m Mat4) UnapplyDir(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[1][0]*v.Y + m[2][0]*v.Z,
		Y: m[0][1]*v.X + m[1][1]*v.Y + m[2][1]*v.Z,
		Z: m[0][2]*v.X + m[1][2]*v.Y + m[2][2]*v.Z,
	}
}

// Origin returns the translation column.
func (m Mat4) Origin() r3.Vec {
	return r3.Vec{X: m[0][3], Y: m[1][3], Z: m[2][3]}
}

// ApproxEqual reports whether every element of m and n differs by at most tol.
func (m Mat4) ApproxEqual(n Mat4, tol float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(m[i][j]-n[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Degrees converts radians to degrees for logging/display.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
