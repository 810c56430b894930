// Package history implements the past/future snapshot stacks that back
// undo and redo.
package history

import (
	"errors"

	"github.com/taskdeck/taskdeck/internal/core/state"
)

var (
	// ErrNothingToUndo is returned by Undo when the past stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo when the future stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxDepth bounds the past stack when no depth is configured.
const DefaultMaxDepth = 100

// Stack holds prior snapshots (past, most-recent last) and snapshots
// reachable by redo (future). Both stacks are bounded by maxDepth; the
// oldest past entry is dropped when the bound is exceeded.
type Stack struct {
	past     []state.State
	future   []state.State
	maxDepth int
}

// NewStack creates a history stack. A maxDepth of zero or less falls
// back to DefaultMaxDepth.
func NewStack(maxDepth int) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Stack{maxDepth: maxDepth}
}

// Record pushes the pre-mutation snapshot onto the past stack and
// discards the future stack. Any new command after an undo makes the
// undone states unreachable, matching standard editor undo semantics.
func (s *Stack) Record(pre state.State) {
	s.past = append(s.past, pre.Clone())
	if len(s.past) > s.maxDepth {
		s.past = s.past[1:]
	}
	s.future = s.future[:0]
}

// Undo pops the most recent past snapshot and returns it as the new
// current state, pushing current onto the future stack.
func (s *Stack) Undo(current state.State) (state.State, error) {
	if len(s.past) == 0 {
		return state.State{}, ErrNothingToUndo
	}

	top := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, current.Clone())
	return top, nil
}

// Redo pops the most recent future snapshot and returns it as the new
// current state, pushing current back onto the past stack.
func (s *Stack) Redo(current state.State) (state.State, error) {
	if len(s.future) == 0 {
		return state.State{}, ErrNothingToRedo
	}

	top := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, current.Clone())
	return top, nil
}

// CanUndo reports whether the past stack is non-empty.
func (s *Stack) CanUndo() bool { return len(s.past) > 0 }

// CanRedo reports whether the future stack is non-empty.
func (s *Stack) CanRedo() bool { return len(s.future) > 0 }

// PastLen returns the past stack depth.
func (s *Stack) PastLen() int { return len(s.past) }

// FutureLen returns the future stack depth.
func (s *Stack) FutureLen() int { return len(s.future) }

// MaxDepth returns the configured stack bound.
func (s *Stack) MaxDepth() int { return s.maxDepth }
