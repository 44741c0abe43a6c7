package ml

import (
	"math"
	"math/rand"
)

// Resampler corrects binary class imbalance with combined over- and
// under-sampling: synthetic minority samples are interpolated between
// nearest minority neighbors until the classes reach parity, then Tomek
// links (cross-class mutual nearest neighbors) have their majority member
// removed.
type Resampler struct {
	K    int // neighbors considered when interpolating, default 5
	Seed int64
}

// Resample returns rebalanced copies of X and y. Inputs are not modified.
// Degenerate inputs (single class, too few minority rows to interpolate)
// are returned as-is.
func (r *Resampler) Resample(x [][]float64, y []float64) ([][]float64, []float64) {
	outX := append([][]float64(nil), x...)
	outY := append([]float64(nil), y...)

	minLabel, majLabel, minCount, majCount := classBalance(outY)
	if minCount == 0 || minCount == majCount {
		return outX, outY
	}

	k := r.K
	if k <= 0 {
		k = 5
	}
	rng := rand.New(rand.NewSource(r.Seed))

	var minority []int
	for i, label := range outY {
		if label == minLabel {
			minority = append(minority, i)
		}
	}

	if len(minority) >= 2 {
		need := majCount - minCount
		for s := 0; s < need; s++ {
			a := minority[rng.Intn(len(minority))]
			b := nearestMinority(outX, minority, a, k, rng)
			t := rng.Float64()
			synth := make([]float64, len(outX[a]))
			for j := range synth {
				synth[j] = outX[a][j] + t*(outX[b][j]-outX[a][j])
			}
			outX = append(outX, synth)
			outY = append(outY, minLabel)
		}
	}

	return removeTomekLinks(outX, outY, majLabel)
}

// classBalance identifies minority/majority labels for a binary vector.
func classBalance(y []float64) (minLabel, majLabel float64, minCount, majCount int) {
	counts := map[float64]int{}
	for _, label := range y {
		counts[label]++
	}
	if len(counts) != 2 {
		return 0, 0, 0, len(y)
	}
	labels := make([]float64, 0, 2)
	for label := range counts {
		labels = append(labels, label)
	}
	if labels[0] > labels[1] {
		labels[0], labels[1] = labels[1], labels[0]
	}
	if counts[labels[0]] <= counts[labels[1]] {
		return labels[0], labels[1], counts[labels[0]], counts[labels[1]]
	}
	return labels[1], labels[0], counts[labels[1]], counts[labels[0]]
}

// nearestMinority picks a random sample among the k nearest minority
// neighbors of a (excluding a itself).
func nearestMinority(x [][]float64, minority []int, a, k int, rng *rand.Rand) int {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, 0, len(minority)-1)
	for _, i := range minority {
		if i == a {
			continue
		}
		cands = append(cands, cand{i, euclidean(x[a], x[i])})
	}
	// partial selection is enough at these sizes
	for i := 0; i < len(cands) && i < k; i++ {
		best := i
		for j := i + 1; j < len(cands); j++ {
			if cands[j].dist < cands[best].dist {
				best = j
			}
		}
		cands[i], cands[best] = cands[best], cands[i]
	}
	limit := k
	if limit > len(cands) {
		limit = len(cands)
	}
	return cands[rng.Intn(limit)].idx
}

// removeTomekLinks drops the majority member of every cross-class mutual
// nearest-neighbor pair.
func removeTomekLinks(x [][]float64, y []float64, majLabel float64) ([][]float64, []float64) {
	n := len(x)
	if n < 2 {
		return x, y
	}
	nn := make([]int, n)
	for i := 0; i < n; i++ {
		best, bestDist := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if d := euclidean(x[i], x[j]); d < bestDist {
				best, bestDist = j, d
			}
		}
		nn[i] = best
	}

	drop := make(map[int]bool)
	for i := 0; i < n; i++ {
		j := nn[i]
		if j > i && nn[j] == i && y[i] != y[j] {
			if y[i] == majLabel {
				drop[i] = true
			} else {
				drop[j] = true
			}
		}
	}
	if len(drop) == 0 {
		return x, y
	}

	keptX := make([][]float64, 0, n-len(drop))
	keptY := make([]float64, 0, n-len(drop))
	for i := 0; i < n; i++ {
		if !drop[i] {
			keptX = append(keptX, x[i])
			keptY = append(keptY, y[i])
		}
	}
	return keptX, keptY
}

func euclidean(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
