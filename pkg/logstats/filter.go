package logstats

import "github.com/RoaringBitmap/roaring"

// Filter returns the noise-filtered view of s used by cut search at the
// given threshold:
//
//   - activities occurring less than t * (most frequent activity) are dropped
//   - an edge a->b is dropped when its count is below t * (heaviest edge
//     leaving a)
//   - start and end activities below t * (most frequent start/end) are
//     dropped, keeping at least one of each when any survives
//
// Threshold 0 returns s itself. The receiver is never modified.
func (s *Snapshot) Filter(t float64) *Snapshot {
	if t <= 0 {
		return s
	}

	f := &Snapshot{
		DFG:            newDFG(),
		Starts:         make(map[string]int),
		Ends:           make(map[string]int),
		ActivityCounts: make(map[string]int),
		MaxPerTrace:    make(map[string]int),
		MinPerTrace:    make(map[string]int),
		TraceSets:      make(map[string]*roaring.Bitmap),
		EmptyTraces:    s.EmptyTraces,
		TraceCount:     s.TraceCount,
	}

	maxCount := maxValue(s.ActivityCounts)
	for a, n := range s.ActivityCounts {
		if float64(n) < t*float64(maxCount) {
			continue
		}
		f.ActivityCounts[a] = n
		f.EventCount += n
		f.MaxPerTrace[a] = s.MaxPerTrace[a]
		f.MinPerTrace[a] = s.MinPerTrace[a]
		f.TraceSets[a] = s.TraceSets[a]
	}
	f.DFG.Activities = sortedKeys(f.ActivityCounts)

	for a, out := range s.DFG.Edges {
		if _, ok := f.ActivityCounts[a]; !ok {
			continue
		}
		heaviest := maxValue(out)
		for b, n := range out {
			if _, ok := f.ActivityCounts[b]; !ok {
				continue
			}
			if float64(n) < t*float64(heaviest) {
				continue
			}
			f.DFG.add(a, b, n)
		}
	}

	f.Starts = filterBoundary(s.Starts, f.ActivityCounts, t)
	f.Ends = filterBoundary(s.Ends, f.ActivityCounts, t)
	return f
}

// filterBoundary applies the start/end threshold restricted to kept
// activities. If every boundary activity would be dropped, the most
// frequent kept one survives.
func filterBoundary(counts map[string]int, kept map[string]int, t float64) map[string]int {
	out := make(map[string]int)
	maxCount := maxValue(counts)
	best, bestCount := "", 0
	for a, n := range counts {
		if _, ok := kept[a]; !ok {
			continue
		}
		if n > bestCount || (n == bestCount && a < best) {
			best, bestCount = a, n
		}
		if float64(n) >= t*float64(maxCount) {
			out[a] = n
		}
	}
	if len(out) == 0 && bestCount > 0 {
		out[best] = bestCount
	}
	return out
}

func maxValue(m map[string]int) int {
	top := 0
	for _, v := range m {
		if v > top {
			top = v
		}
	}
	return top
}
