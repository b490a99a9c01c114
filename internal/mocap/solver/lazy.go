package solver

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// lazy is a value computed at most once per frame. A computed zero value is
// cached like any other.
type lazy[T any] struct {
	v  T
	ok bool
}

func (l *lazy[T]) get(compute func() T) T {
	if !l.ok {
		l.v = compute()
		l.ok = true
	}
	return l.v
}

// values are the intermediate results shared between joint handlers. The
// whole struct is zeroed at the start of every frame.
type values struct {
	hipOri   lazy[quat.Number]
	chestOri lazy[quat.Number]
	headOri  lazy[quat.Number]

	asisMid   lazy[r3.Vec]
	hipX      lazy[r3.Vec]
	hipCenter [2]lazy[r3.Vec]
	spineTop  lazy[r3.Vec]
	spineCtrl lazy[r3.Vec]
	neck      lazy[r3.Vec]
	knuckles  [2]lazy[r3.Vec]

	// Set while computing chestOri.
	chestFallback bool
}
