package cluster

import "math"

// Result holds one k-means run: per-input cluster assignments and the
// final centroids.
type Result struct {
	Assignments []int
	Centroids   [][]float32
}

// AutoK derives a cluster count of roughly three members per cluster,
// bounded below by 2 and above by maxClusters.
func AutoK(n, maxClusters int) int {
	k := n / 3
	if k < 2 {
		k = 2
	}
	if k > maxClusters {
		k = maxClusters
	}
	if k > n {
		k = n
	}
	return k
}

// KMeans clusters the vectors into k groups using cosine distance.
// Seeding is deterministic k-means++: start with the first vector, then
// repeatedly pick the vector farthest from all chosen centroids, so
// repeated runs over the same input produce the same assignment.
func KMeans(vectors [][]float32, k int) Result {
	if len(vectors) == 0 {
		return Result{}
	}
	if k < 1 {
		k = 1
	}
	if k > len(vectors) {
		k = len(vectors)
	}

	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vectors[0])
	for len(centroids) < k {
		bestIdx := 0
		bestDist := -1.0
		for i := range vectors {
			d := 2.0
			for _, c := range centroids {
				dist := 1 - CosineSimilarity(vectors[i], c)
				if dist < d {
					d = dist
				}
			}
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		centroids = append(centroids, vectors[bestIdx])
	}

	assign := make([]int, len(vectors))
	for i := range assign {
		assign[i] = -1
	}

	const maxIterations = 25

	for iter := 0; iter < maxIterations; iter++ {
		changed := false

		for i, v := range vectors {
			best := 0
			bestScore := math.Inf(-1)
			for c := 0; c < k; c++ {
				s := CosineSimilarity(v, centroids[c])
				if s > bestScore {
					bestScore = s
					best = c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Recompute centroids as unit-normalized member means. Empty
		// clusters keep their previous centroid.
		dim := len(vectors[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assign[i]
			counts[c]++
			for j := range v {
				sums[c][j] += float64(v[j])
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			mean := make([]float32, dim)
			for j := range mean {
				mean[j] = float32(sums[c][j] / float64(counts[c]))
			}
			centroids[c] = normalizeUnit(mean)
		}
	}

	return Result{Assignments: assign, Centroids: centroids}
}

func normalizeUnit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum <= 0 {
		return v
	}
	den := float32(1.0 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i := range v {
		out[i] = v[i] * den
	}
	return out
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
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

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
