// Package engine wires the deterministic core together: the logic driver that
// executes fixed-duration ticks, the render driver that reads state for
// presentation, and the orchestrator loop that interleaves the two on a
// fixed-step accumulator.
package engine

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/command"
	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/clock"
	"github.com/rtsforge/sagecore/internal/core/event"
	"github.com/rtsforge/sagecore/internal/core/rng"
	"github.com/rtsforge/sagecore/internal/core/system"
	"github.com/rtsforge/sagecore/internal/entity"
)

// Params configures a Driver. Resolver and Registry are required; Sources may
// be empty for a simulation that only ever coasts.
type Params struct {
	TickDuration time.Duration
	Seed         uint64
	Resolver     content.Resolver
	Registry     *entity.Registry
	Sources      []command.Source
	Log          *zap.Logger
}

// Driver executes logic ticks. One tick is the fixed sub-phase sequence:
// advance clock, consume commands, drain-and-invoke due modules, reschedule,
// flush destruction, notify observers. The driver never reads wall-clock
// time; given the same starting state and the same command batches, N ticks
// are bit-reproducible.
type Driver struct {
	log     *zap.Logger
	clock   *clock.Clock
	dir     *entity.Directory
	bus     *event.Bus
	rng     *rng.Stream
	runner  *system.Runner
	session string
}

func New(p Params) *Driver {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := clock.New(p.TickDuration)
	bus := event.NewBus()
	dir := entity.NewDirectory(p.Resolver, p.Registry, clk, bus, log)
	stream := rng.New(p.Seed)

	d := &Driver{
		log:     log,
		clock:   clk,
		dir:     dir,
		bus:     bus,
		rng:     stream,
		runner:  system.NewRunner(),
		session: uuid.NewString(),
	}
	d.runner.Register(&inputSystem{dir: dir, sources: p.Sources, log: log})
	d.runner.Register(&updateSystem{d: d})
	d.runner.Register(&cleanupSystem{dir: dir})
	d.runner.Register(&observeSystem{bus: bus})
	return d
}

// AddSystem registers an extra tick participant, e.g. the autosaver.
func (d *Driver) AddSystem(s system.System) { d.runner.Register(s) }

// Tick executes exactly one logic tick.
func (d *Driver) Tick() {
	frame := d.clock.AdvanceLogicFrame()
	d.runner.Tick(frame, d.clock.TickDuration())
}

// RunTicks advances n ticks back to back, as replay verification and tests
// do.
func (d *Driver) RunTicks(n int) {
	for i := 0; i < n; i++ {
		d.Tick()
	}
}

// Session identifies this run; snapshots carry it.
func (d *Driver) Session() string { return d.session }

// Clock exposes the frame clock (read-only use outside the drivers).
func (d *Driver) Clock() *clock.Clock { return d.clock }

// Directory exposes the entity directory.
func (d *Driver) Directory() *entity.Directory { return d.dir }

// Bus exposes the lifecycle event bus for observer registration.
func (d *Driver) Bus() *event.Bus { return d.bus }

// Rng exposes the deterministic stream, for seeding scripted content.
func (d *Driver) Rng() *rng.Stream { return d.rng }
