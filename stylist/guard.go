package stylist

import "sync/atomic"

// GuardState is the state of a TaskGuard.
type GuardState int32

const (
	Idle GuardState = iota
	InFlight
)

func (s GuardState) String() string {
	if s == InFlight {
		return "in_flight"
	}
	return "idle"
}

// TaskGuard admits one network action at a time. A second action is
// rejected, not queued.
type TaskGuard struct {
	state atomic.Int32
}

// TryAcquire moves Idle -> InFlight and reports whether it did.
func (g *TaskGuard) TryAcquire() bool {
	return g.state.CompareAndSwap(int32(Idle), int32(InFlight))
}

// Release returns the guard to Idle. Releasing an idle guard is a no-op.
func (g *TaskGuard) Release() {
	g.state.Store(int32(Idle))
}

func (g *TaskGuard) State() GuardState {
	return GuardState(g.state.Load())
}

func (g *TaskGuard) Busy() bool {
	return g.State() == InFlight
}
