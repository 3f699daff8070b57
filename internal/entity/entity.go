// Package entity implements the simulation's object model: entities composed
// of categorized modules, and the directory that is the single writer for
// their creation and destruction. Entities are advanced by the logic driver
// through the wake queue the directory owns; nothing here ever reads the wall
// clock.
package entity

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/rng"
	"github.com/rtsforge/sagecore/internal/core/sched"
)

// ID is a stable, process-unique entity identifier. IDs are assigned
// monotonically and never reused; the directory persists its counter so
// uniqueness survives a save/load.
type ID uint64

// Category orders a template's modules into the groups the engine knows
// about. Within one entity, modules update in slot order, which follows the
// template's module list.
type Category uint8

const (
	CategoryBehavior Category = iota
	CategoryBody
	CategoryContain
	CategoryAI
	CategoryDraw
)

func (c Category) String() string {
	switch c {
	case CategoryBehavior:
		return "behavior"
	case CategoryBody:
		return "body"
	case CategoryContain:
		return "contain"
	case CategoryAI:
		return "ai"
	case CategoryDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// ModuleRef identifies one module of one entity, which is what the wake queue
// schedules. Slot is the module's index in its entity's template.
type ModuleRef struct {
	Entity ID
	Slot   uint8
}

// Transform is an entity's spatial state: position and heading.
type Transform struct {
	Pos mgl64.Vec3
	Yaw float64
}

// Tick is the context handed to a module update: the authoritative frame, the
// fixed tick duration, and the deterministic collaborators a module may touch.
// No wall-clock time ever appears here.
type Tick struct {
	Frame uint64
	Dt    time.Duration
	Dir   *Directory
	Rng   *rng.Stream
}

// Module is the base capability every unit of an entity has: an identity and
// the two lifecycle notifications. Everything else (updating, persisting,
// rendering) is a capability a module implements selectively.
type Module interface {
	Kind() string
	Category() Category

	// OnAttach is called exactly once, when the owning entity has been fully
	// constructed. OnDetach is called exactly once, during the end-of-tick
	// destruction flush.
	OnAttach(e *Entity)
	OnDetach(e *Entity)
}

// Updatable is the capability of modules that take part in scheduling. The
// sleep directive returned from Update (and from InitialSleep at spawn)
// decides when the module next runs; returning Forever parks the module until
// an external wake.
type Updatable interface {
	Module
	InitialSleep() sched.Sleep
	Update(e *Entity, t *Tick) sched.Sleep
}

// Entity is one live simulation object. Its identifier and module collection
// are fixed for its whole lifetime; modules toggle behavior internally rather
// than being added or removed.
type Entity struct {
	id       ID
	template *content.Template
	modules  []Module

	Transform Transform
}

func (e *Entity) ID() ID { return e.id }

// TemplateKey returns the definition key the entity was spawned from.
func (e *Entity) TemplateKey() string { return e.template.Key }

// Modules returns the entity's module list in slot order. Callers must not
// mutate it.
func (e *Entity) Modules() []Module { return e.modules }

// Module returns the module at the given slot.
func (e *Entity) Module(slot uint8) (Module, bool) {
	if int(slot) >= len(e.modules) {
		return nil, false
	}
	return e.modules[slot], true
}

// EachOf visits the entity's modules of one category in slot order.
func (e *Entity) EachOf(cat Category, fn func(slot uint8, m Module) bool) {
	for i, m := range e.modules {
		if m.Category() != cat {
			continue
		}
		if !fn(uint8(i), m) {
			return
		}
	}
}

// FirstOf returns the first module of the given category.
func (e *Entity) FirstOf(cat Category) (uint8, Module, bool) {
	for i, m := range e.modules {
		if m.Category() == cat {
			return uint8(i), m, true
		}
	}
	return 0, nil, false
}
