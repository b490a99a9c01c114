// Package body estimates a subject's height, mass, shoulder width and
// neck-to-chest vector from running means over observed frames. The
// estimates feed the joint-centre regressions in package regression.
package body
