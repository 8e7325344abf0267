// Package discrepancy measures how evenly a 2D point set fills the unit
// square.
package discrepancy

import "math"

// Star2D approximates the star discrepancy
//
//	D* = sup |count([0,u) x [0,v)) / n - u*v|
//
// by taking every point's own coordinates as the box corner (u, v) and
// evaluating both the open and the closed box at that corner. This is the
// O(n^2) estimate used for comparing generators, not a certified bound.
// Only the first min(len(xs), len(ys)) points are used; an empty set scores 0.
func Star2D(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n == 0 {
		return 0
	}
	inv := 1 / float64(n)

	worst := 0.0
	for i := 0; i < n; i++ {
		u, v := xs[i], ys[i]
		open, closed := 0, 0
		for j := 0; j < n; j++ {
			if xs[j] <= u && ys[j] <= v {
				closed++
				if xs[j] < u && ys[j] < v {
					open++
				}
			}
		}
		area := u * v
		worst = math.Max(worst, math.Abs(float64(open)*inv-area))
		worst = math.Max(worst, math.Abs(float64(closed)*inv-area))
	}
	return worst
}
