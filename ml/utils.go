package ml

import "math"

// Convert to One Hot Encoding
func OneHotEncode(x float64, dim int) []float64 {
	targetVector := make([]float64, dim)
	if x >= 0 && x < float64(dim) {
		targetVector[int(x)] = 1.0
	}
	return targetVector
}

// Clamp01 pins v to [0,1]. NaN maps to 0 so encodings stay deterministic.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
