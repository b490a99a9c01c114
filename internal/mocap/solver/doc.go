// Package solver turns labelled marker frames into a posed skeleton.
//
// Each frame is preprocessed (role lookup and pelvis repair), folded into
// the running body proportions and then walked parents-first through the
// skeleton. Every joint has exactly one handler; the handler places the
// joint from regression formulas or geometric constructions, falling back
// through less precise sources when markers are missing. Joints whose
// inputs are gone end up with a NaN position and StatusMissing instead of
// failing the frame.
package solver
