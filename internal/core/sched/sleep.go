// Package sched implements the engine's sleepy scheduling primitives: the
// Sleep directive a unit returns to say when it next wants to run, and the
// frame-bucketed wake queue that makes a tick cost proportional to the number
// of units actually due rather than the number of units alive.
package sched

type sleepKind uint8

const (
	sleepNextTick sleepKind = iota
	sleepFor
	sleepForever
)

// Sleep is a schedulable unit's answer to "when do you want to run next".
// The zero value means "run again next tick".
type Sleep struct {
	kind  sleepKind
	ticks uint64
}

// NextTick requests an update on the very next logic tick.
func NextTick() Sleep { return Sleep{kind: sleepNextTick} }

// For requests an update n ticks from now. n is clamped to a minimum of 1;
// "zero ticks from now" would mean re-entering the tick currently running.
func For(n uint64) Sleep {
	if n == 0 {
		n = 1
	}
	return Sleep{kind: sleepFor, ticks: n}
}

// Forever requests no further updates. Only an explicit ForceWake re-enters
// the unit into the wake queue.
func Forever() Sleep { return Sleep{kind: sleepForever} }

// IsForever reports whether the directive opts out of scheduling entirely.
func (s Sleep) IsForever() bool { return s.kind == sleepForever }

// wakeFrame resolves the directive against the current logic frame. ok is
// false for Forever.
func (s Sleep) wakeFrame(current uint64) (frame uint64, ok bool) {
	switch s.kind {
	case sleepNextTick:
		return current + 1, true
	case sleepFor:
		return current + s.ticks, true
	default:
		return 0, false
	}
}
