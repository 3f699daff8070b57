package command

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/entity"
)

// The body capabilities commands touch, asserted structurally so this package
// does not depend on concrete module types.
type mover interface {
	MoveTo(target mgl64.Vec3)
}

type damageable interface {
	ApplyDamage(amount int) (dead bool)
}

// Apply executes one command against the directory and reports the outcome.
// Runs on the simulation goroutine during the tick's input phase.
func Apply(cmd Command, dir *entity.Directory) Result {
	switch cmd.Kind {
	case KindSpawn:
		return applySpawn(cmd, dir)
	case KindDestroy:
		if _, ok := dir.TryGet(cmd.Target); !ok {
			return Result{Outcome: TargetNotFound}
		}
		dir.RequestDestroy(cmd.Target)
		return Result{Outcome: Accepted}
	case KindMoveTo:
		return applyMove(cmd, dir)
	case KindDamage:
		return applyDamage(cmd, dir)
	case KindWake:
		if _, ok := dir.TryGet(cmd.Target); !ok {
			return Result{Outcome: TargetNotFound}
		}
		dir.Wake(cmd.Target, cmd.Slot)
		return Result{Outcome: Accepted}
	default:
		return Result{Outcome: Rejected}
	}
}

func applySpawn(cmd Command, dir *entity.Directory) Result {
	id, err := dir.Spawn(cmd.Definition, entity.Transform{Pos: cmd.Pos, Yaw: cmd.Yaw})
	if err != nil {
		if errors.Is(err, content.ErrUnknownDefinition) {
			return Result{Outcome: UnknownDefinition}
		}
		return Result{Outcome: Rejected}
	}
	return Result{Outcome: Accepted, Spawned: id}
}

func applyMove(cmd Command, dir *entity.Directory) Result {
	e, ok := dir.TryGet(cmd.Target)
	if !ok {
		return Result{Outcome: TargetNotFound}
	}
	_, m, ok := e.FirstOf(entity.CategoryBody)
	if !ok {
		return Result{Outcome: Rejected}
	}
	mv, ok := m.(mover)
	if !ok {
		return Result{Outcome: Rejected}
	}
	mv.MoveTo(cmd.Pos)
	dir.WakeCategory(cmd.Target, entity.CategoryBody)
	return Result{Outcome: Accepted}
}

func applyDamage(cmd Command, dir *entity.Directory) Result {
	e, ok := dir.TryGet(cmd.Target)
	if !ok {
		return Result{Outcome: TargetNotFound}
	}
	_, m, ok := e.FirstOf(entity.CategoryBody)
	if !ok {
		return Result{Outcome: Rejected}
	}
	dmg, ok := m.(damageable)
	if !ok {
		return Result{Outcome: Rejected}
	}
	dead := dmg.ApplyDamage(cmd.Amount)
	// Damage is the classic external stimulus: it wakes the entity's
	// reactive modules regardless of what they last asked for.
	dir.WakeCategory(cmd.Target, entity.CategoryBehavior)
	dir.WakeCategory(cmd.Target, entity.CategoryAI)
	if dead {
		dir.RequestDestroy(cmd.Target)
	}
	return Result{Outcome: Accepted}
}
