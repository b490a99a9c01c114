// Package mocap is the root of the marker-to-skeleton solver.
//
// Layout mirrors the per-frame data flow:
//
//	markers   raw labelled markers -> role-keyed Frame (aliases, hip repair)
//	body      running body proportions (height, mass, chest depth, shoulders)
//	solver    joint localisation, writes poses onto a skeleton
//	skeleton  fixed joint tree, reference pose and rotation limits
//	geom      vector/quaternion kernel shared by all of the above
//
// This package itself only owns the logging streams. Sub-packages import it;
// it imports none of them.
package mocap
