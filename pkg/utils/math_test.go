package utils

import (
	"math"
	"testing"
)

func TestSquaredL2(t *testing.T) {
	cases := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{0, 0}, []float32{3, 4}, 25},
		{[]float32{1, 1}, []float32{1, 1}, 0},
		{[]float32{1}, []float32{1, 2}, 0},
		{nil, nil, 0},
	}
	for _, tc := range cases {
		if got := SquaredL2(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("SquaredL2(%v, %v)=%f want %f", tc.a, tc.b, got, tc.want)
		}
	}
}
