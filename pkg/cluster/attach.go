package cluster

import (
	"bytes"
	"math"

	"github.com/google/uuid"
)

type Candidate struct {
	ID       uuid.UUID
	Centroid []float32
	Size     int
}

// Attach picks the candidate cluster most similar to vec. It reports false when
// no candidate reaches threshold. Ties go to the larger cluster, then the lower id.
func Attach(vec []float32, candidates []Candidate, threshold float64) (uuid.UUID, float64, bool) {
	best := -1
	bestSim := math.Inf(-1)

	for i, c := range candidates {
		s := cosine32(vec, c.Centroid)
		if s < threshold {
			continue
		}
		if best < 0 {
			best, bestSim = i, s
			continue
		}
		switch {
		case s > bestSim+tieEpsilon:
		case s < bestSim-tieEpsilon:
			continue
		case c.Size > candidates[best].Size:
		case c.Size < candidates[best].Size:
			continue
		case bytes.Compare(c.ID[:], candidates[best].ID[:]) >= 0:
			continue
		}
		best, bestSim = i, s
	}

	if best < 0 {
		return uuid.Nil, 0, false
	}
	return candidates[best].ID, bestSim, true
}

// UpdateCentroid folds one more member into a mean centroid of size n.
func UpdateCentroid(centroid []float32, n int, vec []float32) []float32 {
	out := make([]float32, len(centroid))
	for d := range centroid {
		out[d] = float32((float64(centroid[d])*float64(n) + float64(vec[d])) / float64(n+1))
	}
	return out
}

func cosine32(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
