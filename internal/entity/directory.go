package entity

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/clock"
	"github.com/rtsforge/sagecore/internal/core/event"
	"github.com/rtsforge/sagecore/internal/core/sched"
)

// Directory is the authoritative registry of live entities and the single
// writer for creation and destruction. Destruction requested during a tick is
// deferred to the end-of-tick flush, so no module ever observes a
// half-destroyed entity mid-tick.
type Directory struct {
	log      *zap.Logger
	resolver content.Resolver
	registry *Registry
	clock    *clock.Clock
	bus      *event.Bus
	queue    *sched.Queue[ModuleRef]

	entities map[ID]*Entity
	order    []ID // ascending; IDs are monotonic so appends keep it sorted
	nextID   ID

	pendingDestroy []ID
	pendingSet     map[ID]struct{}
}

func NewDirectory(resolver content.Resolver, registry *Registry, clk *clock.Clock, bus *event.Bus, log *zap.Logger) *Directory {
	return &Directory{
		log:        log,
		resolver:   resolver,
		registry:   registry,
		clock:      clk,
		bus:        bus,
		queue:      sched.NewQueue[ModuleRef](),
		entities:   make(map[ID]*Entity, 1024),
		pendingSet: make(map[ID]struct{}, 16),
	}
}

// Queue exposes the wake queue. The logic driver drains and reschedules it;
// nothing else writes.
func (d *Directory) Queue() *sched.Queue[ModuleRef] { return d.queue }

// Len returns the number of live entities, pending destructions included
// until the next flush.
func (d *Directory) Len() int { return len(d.entities) }

// Spawn constructs an entity from a definition, fires each module's attach
// notification exactly once, and schedules every updatable module whose
// initial sleep is finite. The returned ID is live immediately.
func (d *Directory) Spawn(definition string, tr Transform) (ID, error) {
	tpl, err := d.resolver.Resolve(definition)
	if err != nil {
		return 0, err
	}
	modules := make([]Module, 0, len(tpl.Modules))
	for i, spec := range tpl.Modules {
		m, err := d.registry.New(spec)
		if err != nil {
			return 0, fmt.Errorf("definition %q module %d: %w", definition, i, err)
		}
		modules = append(modules, m)
	}

	d.nextID++
	e := &Entity{id: d.nextID, template: tpl, modules: modules, Transform: tr}
	d.entities[e.id] = e
	d.order = append(d.order, e.id)

	for _, m := range modules {
		m.OnAttach(e)
	}
	frame := d.clock.LogicFrame()
	for i, m := range modules {
		if u, ok := m.(Updatable); ok {
			d.queue.Schedule(ModuleRef{Entity: e.id, Slot: uint8(i)}, u.InitialSleep(), frame)
		}
	}
	event.Emit(d.bus, event.EntitySpawned{Entity: uint64(e.id), Template: tpl.Key, Frame: frame})
	return e.id, nil
}

// RequestDestroy marks the entity for removal at the end of the current tick.
// Unknown IDs are ignored; an order outliving its target is a normal outcome.
func (d *Directory) RequestDestroy(id ID) {
	if _, live := d.entities[id]; !live {
		return
	}
	if _, queued := d.pendingSet[id]; queued {
		return
	}
	d.pendingSet[id] = struct{}{}
	d.pendingDestroy = append(d.pendingDestroy, id)
}

// FlushDestroyed removes every entity queued for destruction: their modules
// leave the wake queue, each gets its detach notification, and observers hear
// about the death afterwards. Called once at the end of every logic tick;
// calling it again with nothing pending is a no-op.
func (d *Directory) FlushDestroyed() {
	if len(d.pendingDestroy) == 0 {
		return
	}
	frame := d.clock.LogicFrame()
	for _, id := range d.pendingDestroy {
		e, ok := d.entities[id]
		if !ok {
			continue
		}
		for i, m := range e.modules {
			if _, upd := m.(Updatable); upd {
				d.queue.Remove(ModuleRef{Entity: id, Slot: uint8(i)})
			}
		}
		for _, m := range e.modules {
			m.OnDetach(e)
		}
		delete(d.entities, id)
		d.dropFromOrder(id)
		event.Emit(d.bus, event.EntityDestroyed{Entity: uint64(id), Template: e.template.Key, Frame: frame})
	}
	d.pendingDestroy = d.pendingDestroy[:0]
	for id := range d.pendingSet {
		delete(d.pendingSet, id)
	}
}

// TryGet looks an entity up. Absence is a normal outcome, not an error: an
// entity destroyed in an earlier tick simply is not there anymore.
func (d *Directory) TryGet(id ID) (*Entity, bool) {
	e, ok := d.entities[id]
	return e, ok
}

// Each visits live entities in ascending ID order. Iteration order is part of
// the determinism contract, so this is the only sanctioned way to walk the
// directory.
func (d *Directory) Each(fn func(e *Entity) bool) {
	for _, id := range d.order {
		e, ok := d.entities[id]
		if !ok {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// Wake force-wakes one module into the current frame's bucket, independent of
// whatever directive it last returned. Waking a module of a dead entity is a
// no-op.
func (d *Directory) Wake(id ID, slot uint8) {
	e, ok := d.entities[id]
	if !ok {
		return
	}
	m, ok := e.Module(slot)
	if !ok {
		return
	}
	if _, upd := m.(Updatable); !upd {
		return
	}
	d.queue.ForceWake(ModuleRef{Entity: id, Slot: slot}, d.clock.LogicFrame())
}

// WakeCategory force-wakes every updatable module of the given category, the
// usual shape of an external stimulus ("you took damage, AI and body react").
func (d *Directory) WakeCategory(id ID, cat Category) {
	e, ok := d.entities[id]
	if !ok {
		return
	}
	e.EachOf(cat, func(slot uint8, m Module) bool {
		if _, upd := m.(Updatable); upd {
			d.queue.ForceWake(ModuleRef{Entity: id, Slot: slot}, d.clock.LogicFrame())
		}
		return true
	})
}

func (d *Directory) dropFromOrder(id ID) {
	i := sort.Search(len(d.order), func(i int) bool { return d.order[i] >= id })
	if i < len(d.order) && d.order[i] == id {
		d.order = append(d.order[:i], d.order[i+1:]...)
	}
}
