package history

import "github.com/taskdeck/taskdeck/internal/core/state"

// Snapshot returns deep copies of both stacks, oldest entries first.
// Used by the snapshot store to persist history across runs.
func (s *Stack) Snapshot() (past, future []state.State) {
	past = cloneStates(s.past)
	future = cloneStates(s.future)
	return past, future
}

// Restore replaces both stacks with the given snapshots, re-applying
// the depth bound.
func (s *Stack) Restore(past, future []state.State) {
	s.past = cloneStates(past)
	s.future = cloneStates(future)
	if len(s.past) > s.maxDepth {
		s.past = s.past[len(s.past)-s.maxDepth:]
	}
	if len(s.future) > s.maxDepth {
		s.future = s.future[len(s.future)-s.maxDepth:]
	}
}

func cloneStates(in []state.State) []state.State {
	out := make([]state.State, len(in))
	for i, st := range in {
		out[i] = st.Clone()
	}
	return out
}
