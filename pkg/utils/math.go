package utils

// SquaredL2 returns the squared Euclidean distance between two vectors.
// Vectors of different lengths yield 0 (callers validate dimensions upstream).
func SquaredL2(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}
