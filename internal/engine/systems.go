package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/command"
	"github.com/rtsforge/sagecore/internal/core/event"
	"github.com/rtsforge/sagecore/internal/core/sched"
	"github.com/rtsforge/sagecore/internal/core/system"
	"github.com/rtsforge/sagecore/internal/entity"
)

// inputSystem drains every command source in registration order and applies
// the commands before any module updates. Outcomes other than accepted are
// normal game flow and logged at debug only.
type inputSystem struct {
	dir     *entity.Directory
	sources []command.Source
	log     *zap.Logger
}

func (s *inputSystem) Phase() system.Phase { return system.PhaseInput }

func (s *inputSystem) Update(frame uint64, _ time.Duration) {
	for _, src := range s.sources {
		for _, cmd := range src.Drain() {
			res := command.Apply(cmd, s.dir)
			if res.Outcome != command.Accepted {
				s.log.Debug("command not applied",
					zap.Uint64("frame", frame),
					zap.Stringer("kind", cmd.Kind),
					zap.Uint64("target", uint64(cmd.Target)),
					zap.Stringer("outcome", res.Outcome))
			}
		}
	}
}

// updateSystem is the heart of the tick: drain the wake queue for this frame,
// invoke every due module, then reschedule each per the directive it
// returned. Invocation and rescheduling are separate passes so a stimulus
// fired by a later module can win over an earlier module's own directive.
type updateSystem struct {
	d *Driver
}

func (s *updateSystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *updateSystem) Update(frame uint64, dt time.Duration) {
	dir := s.d.dir
	due := dir.Queue().DrainDue(frame)
	if len(due) == 0 {
		return
	}
	tick := entity.Tick{Frame: frame, Dt: dt, Dir: dir, Rng: s.d.rng}

	type pending struct {
		ref   entity.ModuleRef
		sleep sched.Sleep
	}
	resched := make([]pending, 0, len(due))

	for _, ref := range due {
		e, ok := dir.TryGet(ref.Entity)
		if !ok {
			// Destroyed in an earlier tick's flush but still in a stale
			// bucket; nothing to run.
			continue
		}
		m, ok := e.Module(ref.Slot)
		if !ok {
			continue
		}
		u, ok := m.(entity.Updatable)
		if !ok {
			continue
		}
		resched = append(resched, pending{ref: ref, sleep: s.invoke(e, ref, u, &tick)})
	}

	for _, p := range resched {
		if _, woken := dir.Queue().Scheduled(p.ref); woken {
			// A force-wake landed during this tick's invocations; the
			// stimulus overrides the module's own directive.
			continue
		}
		dir.Queue().Schedule(p.ref, p.sleep, frame)
	}
}

// invoke runs one module update with panic containment. A panicking module is
// logged with its full identity and treated as if it returned Forever, so a
// broken behavior goes dormant instead of cascading a failure every tick.
func (s *updateSystem) invoke(e *entity.Entity, ref entity.ModuleRef, u entity.Updatable, tick *entity.Tick) (sleep sched.Sleep) {
	defer func() {
		if rec := recover(); rec != nil {
			s.d.log.Error("module update panicked, going dormant",
				zap.Uint64("entity", uint64(ref.Entity)),
				zap.Uint8("slot", ref.Slot),
				zap.String("kind", u.Kind()),
				zap.String("template", e.TemplateKey()),
				zap.Uint64("frame", tick.Frame),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			event.Emit(s.d.bus, event.UnitFaulted{Entity: uint64(ref.Entity), Slot: ref.Slot, Frame: tick.Frame})
			sleep = sched.Forever()
		}
	}()
	return u.Update(e, tick)
}

// cleanupSystem flushes the deferred destruction queue at tick end.
type cleanupSystem struct {
	dir *entity.Directory
}

func (s *cleanupSystem) Phase() system.Phase { return system.PhaseCleanup }

func (s *cleanupSystem) Update(uint64, time.Duration) {
	s.dir.FlushDestroyed()
}

// observeSystem delivers the tick's lifecycle events to passive observers,
// strictly after the flush so observers never see an entity that is about to
// vanish this same tick.
type observeSystem struct {
	bus *event.Bus
}

func (s *observeSystem) Phase() system.Phase { return system.PhaseObserve }

func (s *observeSystem) Update(uint64, time.Duration) {
	s.bus.SwapAndDispatch()
}
