package logstats

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/logflow/procmine/pkg/eventlog"
)

// Snapshot is the statistics of one log. It is computed once per
// recursive call and never mutated afterwards.
type Snapshot struct {
	DFG *DFG

	// Starts and Ends count first and last activities of non-empty traces
	Starts map[string]int
	Ends   map[string]int

	// ActivityCounts is the total number of events per activity
	ActivityCounts map[string]int

	// MaxPerTrace and MinPerTrace bound how often an activity occurs in a
	// single trace; MinPerTrace is 0 when some trace lacks the activity.
	MaxPerTrace map[string]int
	MinPerTrace map[string]int

	// TraceSets holds, per activity, the indices of the traces containing it
	TraceSets map[string]*roaring.Bitmap

	EmptyTraces int
	TraceCount  int
	EventCount  int
}

// Compute derives the statistics of l.
func Compute(l *eventlog.Log) *Snapshot {
	s := &Snapshot{
		DFG:            newDFG(),
		Starts:         make(map[string]int),
		Ends:           make(map[string]int),
		ActivityCounts: make(map[string]int),
		MaxPerTrace:    make(map[string]int),
		MinPerTrace:    make(map[string]int),
		TraceSets:      make(map[string]*roaring.Bitmap),
		TraceCount:     l.Len(),
	}

	perTrace := make(map[string]int)
	for i, t := range l.Traces {
		if len(t) == 0 {
			s.EmptyTraces++
			continue
		}
		s.EventCount += len(t)
		s.Starts[t[0]]++
		s.Ends[t[len(t)-1]]++

		clear(perTrace)
		for j, a := range t {
			s.ActivityCounts[a]++
			perTrace[a]++
			if j > 0 {
				s.DFG.add(t[j-1], a, 1)
			}
		}
		for a, n := range perTrace {
			bm, ok := s.TraceSets[a]
			if !ok {
				bm = roaring.New()
				s.TraceSets[a] = bm
			}
			bm.Add(uint32(i))
			if n > s.MaxPerTrace[a] {
				s.MaxPerTrace[a] = n
			}
		}
	}

	for a := range s.TraceSets {
		if s.TracesWith(a) < s.TraceCount {
			s.MinPerTrace[a] = 0
			continue
		}
		s.MinPerTrace[a] = minPerTrace(l, a)
	}

	s.DFG.Activities = sortedKeys(s.ActivityCounts)
	return s
}

func minPerTrace(l *eventlog.Log, activity string) int {
	lowest := -1
	for _, t := range l.Traces {
		n := 0
		for _, a := range t {
			if a == activity {
				n++
			}
		}
		if lowest < 0 || n < lowest {
			lowest = n
		}
	}
	return lowest
}

// Activities returns the sorted activity set.
func (s *Snapshot) Activities() []string {
	return s.DFG.Activities
}

// IsStart reports whether a starts at least one trace.
func (s *Snapshot) IsStart(a string) bool {
	return s.Starts[a] > 0
}

// IsEnd reports whether a ends at least one trace.
func (s *Snapshot) IsEnd(a string) bool {
	return s.Ends[a] > 0
}

// StartActivities returns the start activities, sorted.
func (s *Snapshot) StartActivities() []string {
	return sortedKeys(s.Starts)
}

// EndActivities returns the end activities, sorted.
func (s *Snapshot) EndActivities() []string {
	return sortedKeys(s.Ends)
}

// TracesWith returns the number of traces containing a.
func (s *Snapshot) TracesWith(a string) int {
	bm, ok := s.TraceSets[a]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// OncePerTrace reports whether a occurs exactly once in every trace.
func (s *Snapshot) OncePerTrace(a string) bool {
	return s.TraceCount > 0 && s.TracesWith(a) == s.TraceCount && s.MaxPerTrace[a] == 1
}

// SharesTraces reports whether a occurs in some trace together with
// another activity.
func (s *Snapshot) SharesTraces(a string) bool {
	x, ok := s.TraceSets[a]
	if !ok {
		return false
	}
	for b, y := range s.TraceSets {
		if b != a && x.Intersects(y) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
