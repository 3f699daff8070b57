package entity

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/clock"
	"github.com/rtsforge/sagecore/internal/core/event"
	"github.com/rtsforge/sagecore/internal/core/sched"
)

// probe is an updatable module that records its lifecycle calls.
type probe struct {
	attached int
	detached int
	updates  int
	initial  sched.Sleep
	next     sched.Sleep
}

func (p *probe) Kind() string               { return "probe" }
func (p *probe) Category() Category         { return CategoryBehavior }
func (p *probe) OnAttach(*Entity)           { p.attached++ }
func (p *probe) OnDetach(*Entity)           { p.detached++ }
func (p *probe) InitialSleep() sched.Sleep  { return p.initial }
func (p *probe) Update(*Entity, *Tick) sched.Sleep {
	p.updates++
	return p.next
}

type testEnv struct {
	dir    *Directory
	clk    *clock.Clock
	bus    *event.Bus
	probes []*probe
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	table, err := content.NewTable([]*content.Template{
		{Key: "thing", Modules: []content.ModuleSpec{{Kind: "probe"}}},
		{Key: "pair", Modules: []content.ModuleSpec{{Kind: "probe"}, {Kind: "probe"}}},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	env := &testEnv{clk: clock.New(0), bus: event.NewBus()}
	reg := NewRegistry()
	reg.Register("probe", func(content.ModuleSpec) (Module, error) {
		p := &probe{initial: sched.NextTick(), next: sched.NextTick()}
		env.probes = append(env.probes, p)
		return p, nil
	})
	env.dir = NewDirectory(table, reg, env.clk, env.bus, zap.NewNop())
	return env
}

func TestSpawnAttachesOnceAndSchedules(t *testing.T) {
	env := newTestEnv(t)
	env.clk.AdvanceLogicFrame() // frame 1

	id, err := env.dir.Spawn("thing", Transform{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if id == 0 {
		t.Fatal("Spawn returned the zero ID")
	}
	p := env.probes[0]
	if p.attached != 1 {
		t.Fatalf("attached %d times, want exactly 1", p.attached)
	}

	frame, ok := env.dir.Queue().Scheduled(ModuleRef{Entity: id, Slot: 0})
	if !ok || frame != 2 {
		t.Fatalf("module scheduled at (%d, %v), want frame 2", frame, ok)
	}
}

func TestSpawnUnknownDefinition(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.dir.Spawn("nonsense", Transform{})
	if !errors.Is(err, content.ErrUnknownDefinition) {
		t.Fatalf("Spawn unknown definition returned %v, want ErrUnknownDefinition", err)
	}
	if env.dir.Len() != 0 {
		t.Fatalf("directory holds %d entities after failed spawn, want 0", env.dir.Len())
	}
}

func TestIDsAreMonotonicAndNeverReused(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.dir.Spawn("thing", Transform{})
	b, _ := env.dir.Spawn("thing", Transform{})
	if b <= a {
		t.Fatalf("IDs not monotonic: %d then %d", a, b)
	}

	env.dir.RequestDestroy(a)
	env.dir.FlushDestroyed()

	c, _ := env.dir.Spawn("thing", Transform{})
	if c <= b {
		t.Fatalf("ID %d reissued after destroying %d", c, a)
	}
}

func TestDestroyIsDeferredUntilFlush(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.dir.Spawn("thing", Transform{})

	env.dir.RequestDestroy(id)
	if _, ok := env.dir.TryGet(id); !ok {
		t.Fatal("entity vanished before the flush")
	}
	if env.probes[0].detached != 0 {
		t.Fatal("detach fired before the flush")
	}

	env.dir.FlushDestroyed()
	if _, ok := env.dir.TryGet(id); ok {
		t.Fatal("entity still visible after the flush")
	}
	if env.probes[0].detached != 1 {
		t.Fatalf("detached %d times, want exactly 1", env.probes[0].detached)
	}
	if _, ok := env.dir.Queue().Scheduled(ModuleRef{Entity: id, Slot: 0}); ok {
		t.Fatal("destroyed entity's module still in the wake queue")
	}
}

func TestRequestDestroyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.dir.Spawn("thing", Transform{})

	env.dir.RequestDestroy(id)
	env.dir.RequestDestroy(id)
	env.dir.RequestDestroy(ID(9999)) // unknown, tolerated

	env.dir.FlushDestroyed()
	env.dir.FlushDestroyed() // second flush with nothing pending

	if env.probes[0].detached != 1 {
		t.Fatalf("detached %d times, want exactly 1", env.probes[0].detached)
	}
}

func TestEachWalksAscendingIDOrder(t *testing.T) {
	env := newTestEnv(t)
	var want []ID
	for i := 0; i < 5; i++ {
		id, _ := env.dir.Spawn("thing", Transform{})
		want = append(want, id)
	}
	env.dir.RequestDestroy(want[2])
	env.dir.FlushDestroyed()
	want = append(want[:2], want[3:]...)

	var got []ID
	env.dir.Each(func(e *Entity) bool {
		got = append(got, e.ID())
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Each visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each visited %v, want %v", got, want)
		}
	}
}

func TestWakeCategoryReschedulesDormantModules(t *testing.T) {
	env := newTestEnv(t)
	env.clk.AdvanceLogicFrame()

	id, _ := env.dir.Spawn("pair", Transform{})
	// park both modules
	for slot := uint8(0); slot < 2; slot++ {
		env.dir.Queue().Schedule(ModuleRef{Entity: id, Slot: slot}, sched.Forever(), env.clk.LogicFrame())
	}

	env.dir.WakeCategory(id, CategoryBehavior)
	due := env.dir.Queue().DrainDue(env.clk.LogicFrame())
	if len(due) != 2 {
		t.Fatalf("woke %d modules, want both of the category", len(due))
	}

	env.dir.Wake(ID(424242), 0) // dead entity, no-op
}

func TestLifecycleEventsReachObservers(t *testing.T) {
	env := newTestEnv(t)
	var spawned, destroyed []uint64
	event.Subscribe(env.bus, func(ev event.EntitySpawned) { spawned = append(spawned, ev.Entity) })
	event.Subscribe(env.bus, func(ev event.EntityDestroyed) { destroyed = append(destroyed, ev.Entity) })

	id, _ := env.dir.Spawn("thing", Transform{})
	env.dir.RequestDestroy(id)
	env.dir.FlushDestroyed()
	env.bus.SwapAndDispatch()

	if len(spawned) != 1 || spawned[0] != uint64(id) {
		t.Fatalf("spawn events %v, want [%d]", spawned, id)
	}
	if len(destroyed) != 1 || destroyed[0] != uint64(id) {
		t.Fatalf("destroy events %v, want [%d]", destroyed, id)
	}
}
