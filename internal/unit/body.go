// Package unit provides the engine's built-in module kinds. Each kind is one
// independently scheduled behavior; an entity template composes them. The
// kinds here deliberately cover every scheduling shape the wake queue
// supports: always-on, periodic, one-shot, and dormant-until-woken.
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

const bodyStateVersion = 1

// Body is an entity's physical presence: hit points and straight-line motion
// toward a commanded target. It sleeps indefinitely while idle and is woken
// by a move order; while moving it runs every tick, integrating position with
// the fixed tick duration.
type Body struct {
	owner *entity.Entity

	maxHP int
	speed float64 // units per second

	hp        int
	target    mgl64.Vec3
	hasTarget bool
}

func NewBody(spec content.ModuleSpec) (entity.Module, error) {
	if spec.HP <= 0 {
		return nil, fmt.Errorf("body module needs hp > 0, got %d", spec.HP)
	}
	if spec.Speed < 0 {
		return nil, fmt.Errorf("body module needs speed >= 0, got %v", spec.Speed)
	}
	return &Body{maxHP: spec.HP, hp: spec.HP, speed: spec.Speed}, nil
}

func (b *Body) Kind() string              { return "body" }
func (b *Body) Category() entity.Category { return entity.CategoryBody }
func (b *Body) OnAttach(e *entity.Entity) { b.owner = e }
func (b *Body) OnDetach(*entity.Entity)   { b.owner = nil }

// InitialSleep parks the body until something orders it around.
func (b *Body) InitialSleep() sched.Sleep { return sched.Forever() }

func (b *Body) Update(e *entity.Entity, t *entity.Tick) sched.Sleep {
	if !b.hasTarget || b.speed == 0 {
		return sched.Forever()
	}
	step := b.speed * t.Dt.Seconds()
	delta := b.target.Sub(e.Transform.Pos)
	dist := delta.Len()
	if dist <= step {
		e.Transform.Pos = b.target
		b.hasTarget = false
		return sched.Forever()
	}
	dir := delta.Mul(1 / dist)
	e.Transform.Pos = e.Transform.Pos.Add(dir.Mul(step))
	e.Transform.Yaw = math.Atan2(dir.Y(), dir.X())
	return sched.NextTick()
}

// MoveTo sets the movement target. The caller is responsible for waking the
// body afterwards; setting a target does not reschedule by itself.
func (b *Body) MoveTo(target mgl64.Vec3) {
	b.target = target
	b.hasTarget = true
}

// Moving reports whether a target is outstanding.
func (b *Body) Moving() bool { return b.hasTarget }

// HP returns current hit points.
func (b *Body) HP() int { return b.hp }

// MaxHP returns the template's hit point cap.
func (b *Body) MaxHP() int { return b.maxHP }

// ApplyDamage subtracts hit points and reports whether the body is spent.
// Negative amounts are ignored; healing goes through Heal.
func (b *Body) ApplyDamage(amount int) (dead bool) {
	if amount < 0 {
		return false
	}
	b.hp -= amount
	if b.hp < 0 {
		b.hp = 0
	}
	return b.hp == 0
}

// Heal restores hit points up to the cap and returns the amount actually
// applied.
func (b *Body) Heal(amount int) int {
	if amount <= 0 || b.hp >= b.maxHP {
		return 0
	}
	healed := amount
	if b.hp+healed > b.maxHP {
		healed = b.maxHP - b.hp
	}
	b.hp += healed
	return healed
}

func (b *Body) SaveState(w *persist.Writer) {
	w.BeginBlock("body", bodyStateVersion)
	w.WriteI64(int64(b.hp))
	w.WriteBool(b.hasTarget)
	w.WriteF64(b.target.X())
	w.WriteF64(b.target.Y())
	w.WriteF64(b.target.Z())
	w.EndBlock()
}

func (b *Body) LoadState(r *persist.Reader) error {
	v := r.OpenBlock("body")
	if err := r.Err(); err != nil {
		return err
	}
	if v > bodyStateVersion {
		return fmt.Errorf("body state v%d: %w", v, persist.ErrTooNew)
	}
	b.hp = int(r.ReadI64())
	b.hasTarget = r.ReadBool()
	b.target[0] = r.ReadF64()
	b.target[1] = r.ReadF64()
	b.target[2] = r.ReadF64()
	r.CloseBlock()
	return r.Err()
}
