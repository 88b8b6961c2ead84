package matrix

// Promote embeds a planar homography in 4x4 homogeneous space. The z row and
// column are (0, 0, 1, 0) so depth passes through unchanged:
//
//	| t0 t1 0 t2 |
//	| t3 t4 0 t5 |
//	| 0  0  1 0  |
//	| t6 t7 0 t8 |
func Promote(t Mat3) Mat4 {
	return Mat4{
		t[0], t[3], 0, t[6],
		t[1], t[4], 0, t[7],
		0, 0, 1, 0,
		t[2], t[5], 0, t[8],
	}
}

// Demote extracts the planar homography embedded by Promote. Composition of
// projective transforms must happen on the demoted form.
func Demote(m Mat4) Mat3 {
	return Mat3{
		m[0], m[4], m[12],
		m[1], m[5], m[13],
		m[3], m[7], m[15],
	}
}
