package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjugate_TimesOriginalIsDeterminantScaledIdentity(t *testing.T) {
	m := Mat3{2, 1, 0, 0, 3, 1, 1, 0, 4}
	det := Determinant(m)
	require.InDelta(t, 25.0, det, 1e-12)

	p := Mul(m, Adjugate(m))
	for i := range 9 {
		want := 0.0
		if i%4 == 0 {
			want = det
		}
		assert.InDelta(t, want, p[i], 1e-9, "index %d", i)
	}
}

func TestAdjugate_Singular(t *testing.T) {
	// rows are linearly dependent
	m := Mat3{1, 2, 3, 2, 4, 6, 0, 1, 1}
	assert.InDelta(t, 0, Determinant(m), 1e-12)
	p := Mul(m, Adjugate(m))
	for i := range 9 {
		assert.InDelta(t, 0, p[i], 1e-9)
	}
}

func TestMul_Identity(t *testing.T) {
	m := Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, m, Mul(m, Identity3()))
	assert.Equal(t, m, Mul(Identity3(), m))
}

func TestMulVec(t *testing.T) {
	m := Mat3{1, 0, 5, 0, 2, 7, 0, 0, 1}
	v := MulVec(m, [3]float64{3, 4, 1})
	assert.Equal(t, [3]float64{8, 15, 1}, v)
}

func TestNormalize(t *testing.T) {
	m, err := Normalize(Mat3{2, 0, 4, 0, 2, 6, 0, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, Mat3{1, 0, 2, 0, 1, 3, 0, 0, 1}, m)

	_, err = Normalize(Mat3{1, 0, 0, 0, 1, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrSingularMatrix)

	_, err = Normalize(Mat3{1, 0, 0, 0, 1, 0, 0, 0, math.NaN()})
	require.ErrorIs(t, err, ErrSingularMatrix)
}

func TestNormalize_NegativeScaleKeepsPositiveZeros(t *testing.T) {
	m, err := Normalize(Mat3{-3, 0, -6, 0, -3, -9, 0, 0, -3})
	require.NoError(t, err)
	assert.Equal(t, Mat3{1, 0, 2, 0, 1, 3, 0, 0, 1}, m)
	for i, v := range m {
		assert.False(t, math.Signbit(v), "coefficient %d", i)
	}
}

func TestMat3IsFinite(t *testing.T) {
	assert.True(t, Identity3().IsFinite())
	m := Identity3()
	m[4] = math.Inf(1)
	assert.False(t, m.IsFinite())
}

func TestMat4_RowsRoundTrip(t *testing.T) {
	var m Mat4
	for i := range m {
		m[i] = float64(i + 1)
	}
	rows := m.Rows()
	// column-major storage: element (0,1) is the first entry of column 1
	assert.InDelta(t, 5.0, rows[0][1], 0)
	assert.InDelta(t, 2.0, rows[1][0], 0)
	assert.Equal(t, m, Mat4FromRows(rows))
}

func TestMat4_Mul(t *testing.T) {
	translate := Promote(Mat3{1, 0, 10, 0, 1, 20, 0, 0, 1})
	scale := Promote(Mat3{2, 0, 0, 0, 2, 0, 0, 0, 1})
	got := translate.Mul(scale)
	want := Promote(Mul(Demote(translate), Demote(scale)))
	assert.Equal(t, want, got)
	assert.Equal(t, translate, translate.Mul(Identity4()))
}

func TestMat4_CSS(t *testing.T) {
	assert.Equal(t, "matrix3d(1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1)", Identity4().CSS())

	m := Promote(Mat3{0.6, 0, 20, 0, 0.6, 20, 0, 0, 1})
	assert.Equal(t, "matrix3d(0.6,0,0,0,0,0.6,0,0,0,0,1,0,20,20,0,1)", m.CSS())

	negZero := math.Copysign(0, -1)
	m[1], m[3], m[12] = negZero, negZero, negZero
	assert.Equal(t, "matrix3d(0.6,0,0,0,0,0.6,0,0,0,0,1,0,0,20,0,1)", m.CSS())
}

func TestLerp(t *testing.T) {
	target := Promote(Mat3{3, 0, 10, 0, 3, 10, 0, 0, 1})
	id := Identity4()

	assert.Equal(t, id, Lerp(id, target, 0))
	assert.Equal(t, target, Lerp(id, target, 1))

	half := Lerp(id, target, 0.5)
	assert.InDelta(t, 2.0, half[0], 1e-12)
	assert.InDelta(t, 5.0, half[12], 1e-12)
	assert.InDelta(t, 1.0, half[10], 1e-12)
}
