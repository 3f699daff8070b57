// Package system defines the fixed sub-phases of a logic tick and the runner
// that executes them. The phase order is the determinism backbone: within one
// tick, input strictly precedes updates, updates precede the destruction
// flush, and observers hear about the tick only after the flush.
package system

import "time"

// Phase orders execution within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: consume queued commands
	PhaseUpdate               // 1: drain wake queue, invoke due modules, reschedule
	PhaseCleanup              // 2: flush deferred entity destruction
	PhaseObserve              // 3: dispatch lifecycle events to observers
	PhasePersist              // 4: autosave snapshot hand-off
)

// System is one sub-phase participant. frame is the logic frame being
// executed; dt is the fixed tick duration, the only notion of elapsed time a
// system may use.
type System interface {
	Phase() Phase
	Update(frame uint64, dt time.Duration)
}
