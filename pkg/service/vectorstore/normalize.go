package vectorstore

import "math"

// Normalize scales vec to unit L2 norm in place. A zero vector is left
// unchanged.
func Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// NormalizeAll normalizes every vector in place
func NormalizeAll(vecs [][]float32) {
	for _, v := range vecs {
		Normalize(v)
	}
}
