package sampling

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/noiselab/internal/hash"
)

// Random2D is the pseudo-random baseline: a uniform point derived from
// (index, seed) through the hash core.
func Random2D(index, seed uint32) (x, y float64) {
	h := hash.Hash2D(index, seed)
	return hash.ToFloat(h), hash.ToFloat(hash.PCG(h))
}

// candidate returns candidate c for point p.
func candidate(p, c, seed uint32) (x, y float64) {
	h := hash.Hash3D(p, c, seed)
	return hash.ToFloat(hash.Wang(h)), hash.ToFloat(hash.PCG(h))
}

// BlueNoise2D fills outX[:count] and outY[:count] with Mitchell best-candidate
// points. Each new point is the candidate, out of numCandidates, farthest from
// its nearest already placed point; the first point takes the first
// candidate. The scan is O(count^2 * numCandidates).
//
// count <= 0 does nothing and numCandidates <= 0 is treated as 1. The buffers
// must hold at least count values.
func BlueNoise2D(outX, outY []float64, count, numCandidates int, seed uint32) {
	if count <= 0 {
		return
	}
	if len(outX) < count || len(outY) < count {
		panic(fmt.Sprintf("sampling: blue noise buffers hold %d/%d values, need %d", len(outX), len(outY), count))
	}
	if numCandidates <= 0 {
		numCandidates = 1
	}

	for p := 0; p < count; p++ {
		bestX, bestY := candidate(uint32(p), 0, seed)
		if p == 0 {
			outX[0], outY[0] = bestX, bestY
			continue
		}
		bestD := nearestSq(outX[:p], outY[:p], bestX, bestY)

		for c := 1; c < numCandidates; c++ {
			cx, cy := candidate(uint32(p), uint32(c), seed)
			if d := nearestSq(outX[:p], outY[:p], cx, cy); d > bestD {
				bestX, bestY, bestD = cx, cy, d
			}
		}
		outX[p], outY[p] = bestX, bestY
	}
}

// BlueNoise allocates and returns a finished best-candidate point set.
func BlueNoise(count, numCandidates int, seed uint32) PointSet {
	if count <= 0 {
		return PointSet{}
	}
	xs := make([]float64, count)
	ys := make([]float64, count)
	BlueNoise2D(xs, ys, count, numCandidates, seed)
	return PointSet{xs: xs, ys: ys}
}

// nearestSq returns the squared distance from (x, y) to the closest placed
// point.
func nearestSq(xs, ys []float64, x, y float64) float64 {
	best := math.Inf(1)
	for i := range xs {
		dx := xs[i] - x
		dy := ys[i] - y
		if d := dx*dx + dy*dy; d < best {
			best = d
		}
	}
	return best
}
