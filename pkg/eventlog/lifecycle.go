package eventlog

import "github.com/logflow/procmine/internal/model"

// RepairLifeCycle reduces a trace to one event per activity instance.
//
// A start is paired with the next complete of the same activity (FIFO);
// the pair is represented by the complete event at its position. Starts
// that never complete are kept at their own position and relabelled as
// complete. Completes without a start and events without lifecycle
// information are kept. All other transitions (schedule, suspend, ...)
// are dropped. The input slice is not modified.
func RepairLifeCycle(events []*model.Event) []*model.Event {
	keep := make([]bool, len(events))
	pending := make(map[string][]int)

	for i, e := range events {
		name := string(e.Activity)
		switch {
		case e.IsStart():
			pending[name] = append(pending[name], i)
			keep[i] = true // until a complete claims it
		case e.IsComplete():
			if starts := pending[name]; len(starts) > 0 {
				keep[starts[0]] = false
				pending[name] = starts[1:]
			}
			keep[i] = true
		}
	}

	out := make([]*model.Event, 0, len(events))
	for i, e := range events {
		if !keep[i] {
			continue
		}
		if e.IsStart() {
			c := e.Clone()
			c.Lifecycle = append(c.Lifecycle[:0], model.TransitionComplete...)
			e = c
		}
		out = append(out, e)
	}
	return out
}
