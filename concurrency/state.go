package concurrency

import "sync/atomic"

// LoopState is the host loop's run state.
//
// State machine:
//
//	StateAwake (0) → StateRunning (3)       [Run()]
//	StateRunning (3) → StateSleeping (2)    [idle wait]
//	StateRunning (3) → StateTerminating (4) [Shutdown()]
//	StateSleeping (2) → StateRunning (3)    [woken]
//	StateSleeping (2) → StateTerminating (4) [Shutdown()]
//	StateTerminating (4) → StateTerminated (1)
//
// Values are intentionally non-sequential (Terminated=1, Sleeping=2) to
// match the numbering the reactor this is grounded on already committed to;
// nothing outside this package depends on the ordinals.
type LoopState uint64

const (
	StateAwake       LoopState = 0
	StateTerminated  LoopState = 1
	StateSleeping    LoopState = 2
	StateRunning     LoopState = 3
	StateTerminating LoopState = 4
)

func (s LoopState) String() string {
	switch s {
	case StateAwake:
		return "awake"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// FastState is a lock-free state machine over LoopState, built directly on
// atomic CAS so Submit/SubmitInternal can check-and-act without a mutex on
// the hot path.
type FastState struct {
	v atomic.Uint64
}

// NewFastState creates a state machine starting in StateAwake.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateAwake))
	return s
}

func (s *FastState) Load() LoopState { return LoopState(s.v.Load()) }

func (s *FastState) Store(state LoopState) { s.v.Store(uint64(state)) }

func (s *FastState) TryTransition(from, to LoopState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

func (s *FastState) TransitionAny(validFrom []LoopState, to LoopState) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

func (s *FastState) IsTerminal() bool { return s.Load() == StateTerminated }

func (s *FastState) CanAcceptWork() bool {
	switch s.Load() {
	case StateAwake, StateRunning, StateSleeping:
		return true
	default:
		return false
	}
}
