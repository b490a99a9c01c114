// Package geom is the vector and quaternion kernel used by the solver.
//
// Vectors are gonum r3.Vec and rotations are gonum quat.Number. Two values
// have special meaning throughout the solver:
//
//   - the NaN vector marks a position that was not observed this frame;
//   - the zero quaternion marks an orientation that has not been computed
//     yet. It is not the identity, which is {Real: 1}.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the no-rotation quaternion.
var Identity = quat.Number{Real: 1}

// degenerateEpsilon is the length below which an axis is treated as zero
// when building orientations.
const degenerateEpsilon = 1e-9

// Unit axes of the solver frame: X toward the subject's left, Y up, Z forward.
var (
	AxisX = r3.Vec{X: 1}
	AxisY = r3.Vec{Y: 1}
	AxisZ = r3.Vec{Z: 1}
)

// NaNVec returns the "not observed" position.
func NaNVec() r3.Vec {
	n := math.NaN()
	return r3.Vec{X: n, Y: n, Z: n}
}

// IsNaNVec reports whether any component of v is NaN.
func IsNaNVec(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// NaNQuat returns an orientation that propagates as "unavailable".
func NaNQuat() quat.Number {
	n := math.NaN()
	return quat.Number{Real: n, Imag: n, Jmag: n, Kmag: n}
}

// IsNaNQuat reports whether any component of q is NaN.
func IsNaNQuat(q quat.Number) bool {
	return math.IsNaN(q.Real) || math.IsNaN(q.Imag) || math.IsNaN(q.Jmag) || math.IsNaN(q.Kmag)
}

// IsZeroQuat reports whether q is the unset sentinel.
func IsZeroQuat(q quat.Number) bool {
	return q == quat.Number{}
}

// Mid returns the midpoint of a and b.
func Mid(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// Between returns a + t*(b-a).
func Between(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Unit returns v scaled to length one. The zero vector yields NaN.
func Unit(v r3.Vec) r3.Vec {
	return r3.Unit(v)
}

// FastUnit normalises v with an approximate reciprocal square root. The
// relative error is below 1e-5, which is enough for direction hints.
func FastUnit(v r3.Vec) r3.Vec {
	n2 := r3.Norm2(v)
	if n2 == 0 {
		return v
	}
	return r3.Scale(invSqrt(n2), v)
}

// invSqrt is the classic bit-level estimate refined by two Newton steps.
func invSqrt(x float64) float64 {
	half := 0.5 * x
	i := math.Float64bits(x)
	i = 0x5fe6eb50c7b537a9 - (i >> 1)
	y := math.Float64frombits(i)
	y = y * (1.5 - half*y*y)
	y = y * (1.5 - half*y*y)
	return y
}

// Rotate returns v rotated by the unit quaternion q.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// Mul composes rotations: the result applies b first, then a.
func Mul(a, b quat.Number) quat.Number {
	return quat.Mul(a, b)
}

// Inverse returns the inverse rotation of q.
func Inverse(q quat.Number) quat.Number {
	return quat.Inv(q)
}

// Normalize scales q to unit length. The zero quaternion is returned as is.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return q
	}
	return quat.Scale(1/n, q)
}

func dot4(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp interpolates along the shortest arc from a (t=0) to b (t=1).
func Slerp(a, b quat.Number, t float64) quat.Number {
	d := dot4(a, b)
	if d < 0 {
		b = quat.Scale(-1, b)
		d = -d
	}
	if d > 0.9995 {
		return Normalize(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta0 := math.Acos(d)
	theta := theta0 * t
	sin0 := math.Sin(theta0)
	s0 := math.Cos(theta) - d*math.Sin(theta)/sin0
	s1 := math.Sin(theta) / sin0
	return quat.Add(quat.Scale(s0, a), quat.Scale(s1, b))
}

// AxisAngle returns the rotation of deg degrees about axis.
func AxisAngle(deg float64, axis r3.Vec) quat.Number {
	return quat.Number(r3.NewRotation(deg*math.Pi/180, axis))
}

// FromTo returns the shortest rotation that takes direction a onto b.
func FromTo(a, b r3.Vec) quat.Number {
	a = r3.Unit(a)
	b = r3.Unit(b)
	d := r3.Dot(a, b)
	if d >= 1-1e-12 {
		return Identity
	}
	if d <= -1+1e-12 {
		axis := r3.Cross(a, AxisX)
		if r3.Norm(axis) < 1e-6 {
			axis = r3.Cross(a, AxisY)
		}
		return quat.Number(r3.NewRotation(math.Pi, axis))
	}
	c := r3.Cross(a, b)
	return Normalize(quat.Number{Real: 1 + d, Imag: c.X, Jmag: c.Y, Kmag: c.Z})
}

// FromToDamped is FromTo scaled back toward identity: t=1 is the full
// rotation, t=0 is none.
func FromToDamped(a, b r3.Vec, t float64) quat.Number {
	return Slerp(Identity, FromTo(a, b), t)
}

// LookAt returns the orientation whose Y axis points along up and whose Z
// axis points along forward, orthogonalised against up.
//
// NaN in either input gives NaN so that missing markers propagate. A zero
// up vector, or a forward vector that is zero or parallel to up, gives
// Identity.
func LookAt(up, forward r3.Vec) quat.Number {
	if IsNaNVec(up) || IsNaNVec(forward) {
		return NaNQuat()
	}
	y, ok := unitOrFalse(up)
	if !ok {
		return Identity
	}
	z, ok := unitOrFalse(r3.Sub(forward, r3.Scale(r3.Dot(forward, y), y)))
	if !ok {
		return Identity
	}
	return FromBasis(r3.Cross(y, z), y, z)
}

// LookAtRight is LookAt with the secondary axis given as X instead of Z.
// Same degenerate-input policy.
func LookAtRight(up, right r3.Vec) quat.Number {
	if IsNaNVec(up) || IsNaNVec(right) {
		return NaNQuat()
	}
	y, ok := unitOrFalse(up)
	if !ok {
		return Identity
	}
	x, ok := unitOrFalse(r3.Sub(right, r3.Scale(r3.Dot(right, y), y)))
	if !ok {
		return Identity
	}
	return FromBasis(x, y, r3.Cross(x, y))
}

// FromThreePoints builds an orientation from a front marker and a
// left/right pair: X from right to left, Z toward front, Y completing the
// frame.
func FromThreePoints(front, left, right r3.Vec) quat.Number {
	x := r3.Sub(left, right)
	forward := r3.Sub(front, Mid(left, right))
	return LookAtRight(r3.Cross(forward, x), x)
}

func unitOrFalse(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n < degenerateEpsilon {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// FromBasis converts an orthonormal right-handed basis (the columns of a
// rotation matrix) to a quaternion.
func FromBasis(x, y, z r3.Vec) quat.Number {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q quat.Number
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	return Normalize(q)
}
