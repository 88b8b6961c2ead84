package matrix

import (
	"fmt"
	"math"
)

// Invert computes the inverse of the square matrix a using Gauss-Jordan
// elimination with partial pivoting on [a | I]. a is not modified.
// It returns ErrSingularMatrix when no usable pivot exists for a column.
func Invert(a [][]float64) ([][]float64, error) {
	n := len(a)
	if n == 0 {
		return nil, fmt.Errorf("invert empty matrix: %w", ErrSingularMatrix)
	}
	aug := make([][]float64, n)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("invert: row %d has %d columns, want %d", i, len(row), n)
		}
		aug[i] = make([]float64, 2*n)
		copy(aug[i], row)
		aug[i][n+i] = 1
	}

	for col := range n {
		if !pivotAndNormalize(aug, col) {
			return nil, fmt.Errorf("no pivot in column %d: %w", col, ErrSingularMatrix)
		}
		eliminateColumn(aug, col)
	}

	inv := make([][]float64, n)
	for i := range n {
		inv[i] = make([]float64, n)
		copy(inv[i], aug[i][n:])
		for _, v := range inv[i] {
			if !isFinite(v) {
				return nil, fmt.Errorf("non-finite inverse: %w", ErrSingularMatrix)
			}
		}
	}
	return inv, nil
}

// Invert4 is Invert specialized to Mat4.
func Invert4(m Mat4) (Mat4, error) {
	inv, err := Invert(m.Rows())
	if err != nil {
		return Mat4{}, err
	}
	return Mat4FromRows(inv), nil
}

func pivotAndNormalize(aug [][]float64, col int) bool {
	pivotRow := findPivotRow(aug, col)
	if pivotRow == -1 {
		return false
	}
	if pivotRow != col {
		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]
	}
	normalizeRow(aug, col)
	return true
}

func findPivotRow(aug [][]float64, col int) int {
	maxAbs := math.Abs(aug[col][col])
	pivotRow := col
	for r := col + 1; r < len(aug); r++ {
		if v := math.Abs(aug[r][col]); v > maxAbs {
			maxAbs = v
			pivotRow = r
		}
	}
	if maxAbs <= PivotEpsilon || math.IsNaN(maxAbs) {
		return -1
	}
	return pivotRow
}

func normalizeRow(aug [][]float64, row int) {
	div := aug[row][row]
	for c := range aug[row] {
		aug[row][c] /= div
	}
}

func eliminateColumn(aug [][]float64, col int) {
	for r := range aug {
		if r == col {
			continue
		}
		factor := aug[r][col]
		if factor == 0 {
			continue
		}
		for c := range aug[r] {
			aug[r][c] -= factor * aug[col][c]
		}
	}
}
