package unit

import (
	"fmt"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/sched"
	"github.com/rtsforge/sagecore/internal/entity"
)

// Regen periodically heals the sibling body. It is the canonical sleepy
// module: while the body is at full health it sleeps indefinitely, and taking
// damage force-wakes it through the behavior category. No internal state
// survives a tick, so it has nothing to persist; its schedule lives in the
// wake queue like everyone else's.
type Regen struct {
	interval uint64
	amount   int
}

func NewRegen(spec content.ModuleSpec) (entity.Module, error) {
	if spec.IntervalTicks == 0 {
		return nil, fmt.Errorf("regen module needs interval_ticks > 0")
	}
	if spec.Amount <= 0 {
		return nil, fmt.Errorf("regen module needs amount > 0, got %d", spec.Amount)
	}
	return &Regen{interval: spec.IntervalTicks, amount: spec.Amount}, nil
}

func (g *Regen) Kind() string              { return "regen" }
func (g *Regen) Category() entity.Category { return entity.CategoryBehavior }
func (g *Regen) OnAttach(*entity.Entity)   {}
func (g *Regen) OnDetach(*entity.Entity)   {}

func (g *Regen) InitialSleep() sched.Sleep { return sched.For(g.interval) }

func (g *Regen) Update(e *entity.Entity, _ *entity.Tick) sched.Sleep {
	_, m, ok := e.FirstOf(entity.CategoryBody)
	if !ok {
		return sched.Forever()
	}
	body, ok := m.(*Body)
	if !ok {
		return sched.Forever()
	}
	body.Heal(g.amount)
	if body.HP() >= body.MaxHP() {
		return sched.Forever()
	}
	return sched.For(g.interval)
}
