package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseVector parses a string-encoded vector ("[0.1, 0.2, 0.3]" or a bare
// comma-delimited list) into a numeric vector. Any non-finite component is
// an error.
func ParseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty vector")
	}

	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("component %d is not finite", i)
		}
		vec = append(vec, float32(v))
	}
	return vec, nil
}

// CosineSimilarity computes dot(a,b)/(|a||b|) clamped to [0,1]. Dimension
// mismatches and zero-norm vectors yield 0 rather than an error so that a
// single corrupt record never aborts a batch.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	// Guard against floating-point drift producing out-of-range values.
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// IsFiniteVector reports whether every component of the vector is finite.
func IsFiniteVector(vec []float32) bool {
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
