package strategy

import "math"

// FitDimension returns a copy of v adjusted to exactly dim elements.
// Longer vectors are truncated, shorter vectors are zero-padded; values are
// never interpolated. Uniform dimensionality is required for any downstream
// similarity comparison.
func FitDimension(v []float32, dim int) []float32 {
	if dim <= 0 {
		return nil
	}
	result := make([]float32, dim)
	copy(result, v)
	return result
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
