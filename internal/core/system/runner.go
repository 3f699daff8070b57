package system

import (
	"sort"
	"time"
)

// Runner executes registered systems in phase order each tick. Registration
// order breaks ties within a phase, and the sort is stable, so the execution
// sequence is fixed for the life of the process, which replay depends on.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{systems: make([]System, 0, 8)}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once, in phase order.
func (r *Runner) Tick(frame uint64, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(frame, dt)
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
