// Package downsampling reduces a series to a bounded number of chart points.
package downsampling

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Mode selects the reduction algorithm
type Mode string

const (
	// ModeNone returns the series untouched
	ModeNone Mode = "none"
	// ModeAuto picks an algorithm from the shape of the data
	ModeAuto Mode = "auto"
	// ModeLTTB uses Largest-Triangle-Three-Buckets
	ModeLTTB Mode = "lttb"
	// ModeMinMax keeps the min and max of each bucket
	ModeMinMax Mode = "minmax"
	// ModeAverage replaces each bucket by its mean
	ModeAverage Mode = "avg"
	// ModeM4 keeps first, min, max and last of each bucket
	ModeM4 Mode = "m4"
)

// MinPoints is the smallest target the reducers accept.
const MinPoints = 3

// ValidModes returns all modes in documentation order
func ValidModes() []Mode {
	return []Mode{ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage, ModeM4}
}

// ParseMode resolves a mode name. Empty means auto.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeAuto, nil
	}
	for _, m := range ValidModes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown downsampling mode %q (valid: none, auto, lttb, minmax, avg, m4)", s)
}

// Reduce shrinks times/values to about maxPoints points. Non-finite values
// never enter a bucket. Series already within the limit, and maxPoints <= 0,
// are returned as is.
func Reduce(times []time.Time, values []float64, mode Mode, maxPoints int) ([]time.Time, []float64, error) {
	if len(times) != len(values) {
		return nil, nil, fmt.Errorf("downsampling: %d timestamps for %d values", len(times), len(values))
	}
	if mode == ModeNone || maxPoints <= 0 || len(values) <= maxPoints {
		return times, values, nil
	}
	if maxPoints < MinPoints {
		maxPoints = MinPoints
	}

	// idx maps positions in the finite subset back to the input
	idx := make([]int, 0, len(values))
	ys := make([]float64, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		idx = append(idx, i)
		ys = append(ys, v)
	}
	if len(ys) <= maxPoints {
		return times, values, nil
	}

	if mode == ModeAuto {
		mode = pickMode(ys)
	}

	var keep []int
	switch mode {
	case ModeLTTB:
		keep = lttb(ys, maxPoints)
	case ModeMinMax:
		keep = minmax(ys, maxPoints)
	case ModeM4:
		keep = m4(ys, maxPoints)
	case ModeAverage:
		return average(times, ys, idx, maxPoints)
	default:
		return nil, nil, fmt.Errorf("unknown downsampling mode %q", mode)
	}

	outT := make([]time.Time, len(keep))
	outV := make([]float64, len(keep))
	for i, k := range keep {
		outT[i] = times[idx[k]]
		outV[i] = ys[k]
	}
	return outT, outV, nil
}

// pickMode prefers peak-preserving reducers for jumpy data and LTTB for
// smooth curves.
func pickMode(ys []float64) Mode {
	s := spikiness(ys)
	switch {
	case s > 0.2:
		return ModeMinMax
	case s > 0.1:
		return ModeM4
	case len(ys) > 100000:
		return ModeAverage
	default:
		return ModeLTTB
	}
}

// spikiness is in [0,1]: the weighted share of points beyond two standard
// deviations and of steps larger than one.
func spikiness(ys []float64) float64 {
	if len(ys) < 10 {
		return 0
	}
	mean, sd := stat.PopMeanStdDev(ys, nil)
	if sd == 0 {
		return 0
	}

	var outliers, jumps int
	for i, v := range ys {
		if math.Abs(v-mean) > 2*sd {
			outliers++
		}
		if i > 0 && math.Abs(v-ys[i-1]) > sd {
			jumps++
		}
	}
	abs := float64(outliers) / float64(len(ys))
	der := float64(jumps) / float64(len(ys)-1)
	return math.Min(1, (abs+1.5*der)/2.5)
}

// bucket returns the half-open range of bucket i when n points are split
// into k equal buckets.
func bucket(i, k, n int) (int, int) {
	size := float64(n) / float64(k)
	lo := int(float64(i) * size)
	hi := int(float64(i+1) * size)
	if hi > n {
		hi = n
	}
	return lo, hi
}

// lttb returns the indices kept by Largest-Triangle-Three-Buckets. The
// first and last points always survive.
func lttb(ys []float64, target int) []int {
	n := len(ys)
	out := make([]int, 0, target)
	out = append(out, 0)

	size := float64(n-2) / float64(target-2)
	prev := 0
	for i := 0; i < target-2; i++ {
		// centroid of the next bucket
		nextLo := int(float64(i+1)*size) + 1
		nextHi := int(float64(i+2)*size) + 1
		if nextHi > n {
			nextHi = n
		}
		var cx, cy float64
		for j := nextLo; j < nextHi; j++ {
			cx += float64(j)
			cy += ys[j]
		}
		if cnt := float64(nextHi - nextLo); cnt > 0 {
			cx /= cnt
			cy /= cnt
		}

		lo := int(float64(i)*size) + 1
		hi := int(float64(i+1)*size) + 1
		px, py := float64(prev), ys[prev]
		best, bestArea := lo, -1.0
		for j := lo; j < hi; j++ {
			area := math.Abs((px-cx)*(ys[j]-py)-(px-float64(j))*(cy-py)) / 2
			if area > bestArea {
				best, bestArea = j, area
			}
		}
		out = append(out, best)
		prev = best
	}
	return append(out, n-1)
}

// extremes returns the positions of the min and max in ys[lo:hi].
func extremes(ys []float64, lo, hi int) (int, int) {
	minI, maxI := lo, lo
	for j := lo + 1; j < hi; j++ {
		if ys[j] < ys[minI] {
			minI = j
		}
		if ys[j] > ys[maxI] {
			maxI = j
		}
	}
	return minI, maxI
}

// minmax keeps the extremes of target/2 buckets in time order.
func minmax(ys []float64, target int) []int {
	k := max(target/2, 1)
	out := make([]int, 0, 2*k)
	for i := 0; i < k; i++ {
		lo, hi := bucket(i, k, len(ys))
		if lo >= hi {
			continue
		}
		a, b := extremes(ys, lo, hi)
		if a > b {
			a, b = b, a
		}
		out = append(out, a)
		if b != a {
			out = append(out, b)
		}
	}
	return out
}

// m4 keeps first, min, max and last of target/4 buckets in time order.
func m4(ys []float64, target int) []int {
	k := max(target/4, 1)
	out := make([]int, 0, 4*k)
	for i := 0; i < k; i++ {
		lo, hi := bucket(i, k, len(ys))
		if lo >= hi {
			continue
		}
		a, b := extremes(ys, lo, hi)
		if a > b {
			a, b = b, a
		}
		last := -1
		for _, j := range []int{lo, a, b, hi - 1} {
			if j != last {
				out = append(out, j)
				last = j
			}
		}
	}
	return out
}

// average replaces each bucket by its mean, stamped with the time of the
// bucket's middle point.
func average(times []time.Time, ys []float64, idx []int, target int) ([]time.Time, []float64, error) {
	outT := make([]time.Time, 0, target)
	outV := make([]float64, 0, target)
	for i := 0; i < target; i++ {
		lo, hi := bucket(i, target, len(ys))
		if lo >= hi {
			continue
		}
		outT = append(outT, times[idx[lo+(hi-lo)/2]])
		outV = append(outV, stat.Mean(ys[lo:hi], nil))
	}
	return outT, outV, nil
}
