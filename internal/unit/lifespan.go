package unit

import (
	"fmt"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/sched"
	"github.com/rtsforge/sagecore/internal/entity"
)

// Lifespan destroys its entity a fixed number of ticks after spawn: the
// one-shot deferred shape (projectiles, decals, temporary effects). The
// countdown is not stored here at all; it exists solely as the module's wake
// frame, which the queue snapshot carries across a save/load.
type Lifespan struct {
	life uint64
}

func NewLifespan(spec content.ModuleSpec) (entity.Module, error) {
	if spec.LifeTicks == 0 {
		return nil, fmt.Errorf("lifespan module needs life_ticks > 0")
	}
	return &Lifespan{life: spec.LifeTicks}, nil
}

func (l *Lifespan) Kind() string              { return "lifespan" }
func (l *Lifespan) Category() entity.Category { return entity.CategoryBehavior }
func (l *Lifespan) OnAttach(*entity.Entity)   {}
func (l *Lifespan) OnDetach(*entity.Entity)   {}

func (l *Lifespan) InitialSleep() sched.Sleep { return sched.For(l.life) }

func (l *Lifespan) Update(e *entity.Entity, t *entity.Tick) sched.Sleep {
	t.Dir.RequestDestroy(e.ID())
	return sched.Forever()
}
