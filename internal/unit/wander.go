package unit

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/sched"
	"github.com/rtsforge/sagecore/internal/entity"
	"github.com/rtsforge/sagecore/internal/persist"
)

const wanderStateVersion = 1

// Wander is idle-roam AI: every few seconds it orders the body to a random
// point near the entity's spawn position, then goes back to sleep for a
// random stretch. All randomness comes from the tick's deterministic stream,
// so a replay wanders identically.
type Wander struct {
	radius  float64
	minIdle uint64
	maxIdle uint64

	origin    mgl64.Vec3
	originSet bool
}

func NewWander(spec content.ModuleSpec) (entity.Module, error) {
	if spec.WanderRadius <= 0 {
		return nil, fmt.Errorf("wander module needs wander_radius > 0, got %v", spec.WanderRadius)
	}
	minIdle, maxIdle := spec.MinIdleTicks, spec.MaxIdleTicks
	if minIdle == 0 {
		minIdle = 1
	}
	if maxIdle < minIdle {
		return nil, fmt.Errorf("wander module needs max_idle_ticks >= min_idle_ticks (%d < %d)", maxIdle, minIdle)
	}
	return &Wander{radius: spec.WanderRadius, minIdle: minIdle, maxIdle: maxIdle}, nil
}

func (a *Wander) Kind() string              { return "wander" }
func (a *Wander) Category() entity.Category { return entity.CategoryAI }
func (a *Wander) OnAttach(*entity.Entity)   {}
func (a *Wander) OnDetach(*entity.Entity)   {}

func (a *Wander) InitialSleep() sched.Sleep { return sched.For(a.minIdle) }

func (a *Wander) Update(e *entity.Entity, t *entity.Tick) sched.Sleep {
	if !a.originSet {
		a.origin = e.Transform.Pos
		a.originSet = true
	}
	_, m, ok := e.FirstOf(entity.CategoryBody)
	if ok {
		if body, isBody := m.(*Body); isBody && !body.Moving() {
			angle := t.Rng.Float64() * 2 * math.Pi
			dist := t.Rng.Float64() * a.radius
			target := a.origin.Add(mgl64.Vec3{math.Cos(angle) * dist, math.Sin(angle) * dist, 0})
			body.MoveTo(target)
			t.Dir.WakeCategory(e.ID(), entity.CategoryBody)
		}
	}
	idle := a.minIdle
	if span := a.maxIdle - a.minIdle; span > 0 {
		idle += t.Rng.Uint64N(span + 1)
	}
	return sched.For(idle)
}

func (a *Wander) SaveState(w *persist.Writer) {
	w.BeginBlock("wander", wanderStateVersion)
	w.WriteBool(a.originSet)
	w.WriteF64(a.origin.X())
	w.WriteF64(a.origin.Y())
	w.WriteF64(a.origin.Z())
	w.EndBlock()
}

func (a *Wander) LoadState(r *persist.Reader) error {
	v := r.OpenBlock("wander")
	if err := r.Err(); err != nil {
		return err
	}
	if v > wanderStateVersion {
		return fmt.Errorf("wander state v%d: %w", v, persist.ErrTooNew)
	}
	a.originSet = r.ReadBool()
	a.origin[0] = r.ReadF64()
	a.origin[1] = r.ReadF64()
	a.origin[2] = r.ReadF64()
	r.CloseBlock()
	return r.Err()
}
