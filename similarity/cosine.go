package similarity

import "math"

// Cosine returns the cosine similarity of a and b clamped to [0, 1].
// Mismatched lengths, empty vectors and zero vectors score 0.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return float32(score)
}
