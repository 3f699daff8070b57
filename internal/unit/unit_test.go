package unit

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/clock"
	"github.com/rtsforge/sagecore/internal/core/event"
	"github.com/rtsforge/sagecore/internal/core/rng"
	"github.com/rtsforge/sagecore/internal/entity"
	"github.com/rtsforge/sagecore/internal/persist"
)

// pump is a minimal drain-invoke-reschedule cycle, enough to drive modules
// through their scheduling contract without the full engine.
type pump struct {
	clk *clock.Clock
	dir *entity.Directory
	rng *rng.Stream
	dt  time.Duration
}

func newPump(t *testing.T, seed uint64, templates ...*content.Template) *pump {
	t.Helper()
	table, err := content.NewTable(templates)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	reg := entity.NewRegistry()
	RegisterAll(reg)
	clk := clock.New(100 * time.Millisecond)
	dir := entity.NewDirectory(table, reg, clk, event.NewBus(), zap.NewNop())
	return &pump{clk: clk, dir: dir, rng: rng.New(seed), dt: 100 * time.Millisecond}
}

func (p *pump) tick() {
	frame := p.clk.AdvanceLogicFrame()
	tc := &entity.Tick{Frame: frame, Dt: p.dt, Dir: p.dir, Rng: p.rng}
	for _, ref := range p.dir.Queue().DrainDue(frame) {
		e, ok := p.dir.TryGet(ref.Entity)
		if !ok {
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
		sleep := u.Update(e, tc)
		if _, already := p.dir.Queue().Scheduled(ref); !already {
			p.dir.Queue().Schedule(ref, sleep, frame)
		}
	}
	p.dir.FlushDestroyed()
}

func soldierTemplate() *content.Template {
	return &content.Template{Key: "soldier", Modules: []content.ModuleSpec{
		{Kind: "body", HP: 50, Speed: 4},
	}}
}

func (p *pump) body(t *testing.T, id entity.ID) *Body {
	t.Helper()
	e, ok := p.dir.TryGet(id)
	if !ok {
		t.Fatalf("entity %d not live", id)
	}
	_, m, ok := e.FirstOf(entity.CategoryBody)
	if !ok {
		t.Fatalf("entity %d has no body", id)
	}
	return m.(*Body)
}

func TestBodyMovesToTargetThenSleeps(t *testing.T) {
	p := newPump(t, 1, soldierTemplate())
	id, err := p.dir.Spawn("soldier", entity.Transform{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	// 4 units/s at 100ms ticks is 0.4 units per tick; 2 units away.
	p.body(t, id).MoveTo(mgl64.Vec3{2, 0, 0})
	p.dir.WakeCategory(id, entity.CategoryBody)

	for i := 0; i < 5; i++ {
		p.tick()
	}
	e, _ := p.dir.TryGet(id)
	if e.Transform.Pos != (mgl64.Vec3{2, 0, 0}) {
		t.Fatalf("pos = %v after 5 ticks, want exactly the target", e.Transform.Pos)
	}
	if p.body(t, id).Moving() {
		t.Fatal("body still moving after arrival")
	}
	if p.dir.Queue().Len() != 0 {
		t.Fatal("arrived body still scheduled; idle bodies must cost nothing")
	}
}

func TestBodyDamageAndHealClamp(t *testing.T) {
	p := newPump(t, 1, soldierTemplate())
	id, _ := p.dir.Spawn("soldier", entity.Transform{})
	b := p.body(t, id)

	if dead := b.ApplyDamage(49); dead {
		t.Fatal("49 damage to 50 hp reported dead")
	}
	if dead := b.ApplyDamage(100); !dead {
		t.Fatal("overkill not reported dead")
	}
	if b.HP() != 0 {
		t.Fatalf("hp = %d after overkill, want clamp at 0", b.HP())
	}
	if b.ApplyDamage(-5); b.HP() != 0 {
		t.Fatal("negative damage changed hp")
	}

	if healed := b.Heal(1000); healed != 50 {
		t.Fatalf("heal applied %d, want clamp at max", healed)
	}
	if healed := b.Heal(5); healed != 0 {
		t.Fatalf("heal at full applied %d", healed)
	}
}

func TestBodyStateRoundTrip(t *testing.T) {
	p := newPump(t, 1, soldierTemplate())
	id, _ := p.dir.Spawn("soldier", entity.Transform{})
	src := p.body(t, id)
	src.ApplyDamage(13)
	src.MoveTo(mgl64.Vec3{3, -4, 0.5})

	w := persist.NewWriter()
	src.SaveState(w)

	m, _ := NewBody(content.ModuleSpec{HP: 50, Speed: 4})
	dst := m.(*Body)
	if err := dst.LoadState(persist.NewReader(w.Bytes())); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if dst.HP() != 37 {
		t.Fatalf("restored hp = %d, want 37", dst.HP())
	}
	if !dst.Moving() {
		t.Fatal("restored body lost its move target")
	}
}

func TestRegenSleepsAtFullHealthAndWakesOnDamage(t *testing.T) {
	tpl := &content.Template{Key: "healer", Modules: []content.ModuleSpec{
		{Kind: "body", HP: 50},
		{Kind: "regen", IntervalTicks: 3, Amount: 5},
	}}
	p := newPump(t, 1, tpl)
	id, _ := p.dir.Spawn("healer", entity.Transform{})

	// First interval elapses at full health: regen goes dormant.
	for i := 0; i < 3; i++ {
		p.tick()
	}
	if p.dir.Queue().Len() != 0 {
		t.Fatal("regen still scheduled at full health")
	}

	p.body(t, id).ApplyDamage(20)
	p.dir.WakeCategory(id, entity.CategoryBehavior)

	// Woken regen heals on the next tick, then every interval.
	p.tick()
	if hp := p.body(t, id).HP(); hp != 35 {
		t.Fatalf("hp = %d after first woken heal, want 35", hp)
	}
	for i := 0; i < 3; i++ {
		p.tick()
	}
	if hp := p.body(t, id).HP(); hp != 40 {
		t.Fatalf("hp = %d one interval later, want 40", hp)
	}
	for i := 0; i < 9; i++ {
		p.tick()
	}
	if hp := p.body(t, id).HP(); hp != 50 {
		t.Fatalf("hp = %d, want fully healed", hp)
	}
	if p.dir.Queue().Len() != 0 {
		t.Fatal("regen not dormant again at full health")
	}
}

func TestLifespanDestroysOnSchedule(t *testing.T) {
	tpl := &content.Template{Key: "mayfly", Modules: []content.ModuleSpec{
		{Kind: "body", HP: 1},
		{Kind: "lifespan", LifeTicks: 5},
	}}
	p := newPump(t, 1, tpl)
	id, _ := p.dir.Spawn("mayfly", entity.Transform{})

	for i := 0; i < 4; i++ {
		p.tick()
	}
	if _, ok := p.dir.TryGet(id); !ok {
		t.Fatal("entity died before its lifespan elapsed")
	}
	p.tick()
	if _, ok := p.dir.TryGet(id); ok {
		t.Fatal("entity outlived its lifespan")
	}
}

func TestWanderIsDeterministicPerSeed(t *testing.T) {
	tpl := &content.Template{Key: "roamer", Modules: []content.ModuleSpec{
		{Kind: "body", HP: 10, Speed: 2},
		{Kind: "wander", WanderRadius: 8, MinIdleTicks: 2, MaxIdleTicks: 6},
	}}
	run := func(seed uint64) mgl64.Vec3 {
		p := newPump(t, seed, tpl)
		id, _ := p.dir.Spawn("roamer", entity.Transform{Pos: mgl64.Vec3{1, 1, 0}})
		for i := 0; i < 50; i++ {
			p.tick()
		}
		e, _ := p.dir.TryGet(id)
		return e.Transform.Pos
	}

	a, b := run(7), run(7)
	if a != b {
		t.Fatalf("same seed wandered differently: %v vs %v", a, b)
	}
	if c := run(8); c == a {
		t.Fatalf("different seeds wandered identically to %v", a)
	}
	if a == (mgl64.Vec3{1, 1, 0}) {
		t.Fatal("roamer never moved")
	}
}

func TestSpriteInterpolatesBetweenTicks(t *testing.T) {
	tpl := &content.Template{Key: "drawn", Modules: []content.ModuleSpec{
		{Kind: "body", HP: 10, Speed: 10},
		{Kind: "sprite", Mesh: "cube", Material: "plain"},
	}}
	p := newPump(t, 1, tpl)
	id, _ := p.dir.Spawn("drawn", entity.Transform{})

	// 10 units/s at 100ms ticks moves 1 unit per tick.
	p.body(t, id).MoveTo(mgl64.Vec3{100, 0, 0})
	p.dir.WakeCategory(id, entity.CategoryBody)
	p.tick()
	p.tick()

	e, _ := p.dir.TryGet(id)
	_, m, _ := e.FirstOf(entity.CategoryDraw)
	sub, err := m.(*Sprite).Render(0.5)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := sub.Pos.X(); got <= 0.9 || got >= 2.1 {
		t.Fatalf("interpolated x = %v, want between the last two tick positions", got)
	}
	at0, _ := m.(*Sprite).Render(0)
	at1, _ := m.(*Sprite).Render(1)
	if !(at0.Pos.X() < sub.Pos.X() && sub.Pos.X() < at1.Pos.X()) {
		t.Fatalf("alpha ordering broken: %v, %v, %v", at0.Pos.X(), sub.Pos.X(), at1.Pos.X())
	}
	if sub.Mesh != "cube" || sub.Material != "plain" {
		t.Fatalf("submission = %+v", sub)
	}
}

func TestModuleSpecValidation(t *testing.T) {
	if _, err := NewBody(content.ModuleSpec{HP: 0}); err == nil {
		t.Fatal("body accepted hp 0")
	}
	if _, err := NewRegen(content.ModuleSpec{IntervalTicks: 0, Amount: 1}); err == nil {
		t.Fatal("regen accepted interval 0")
	}
	if _, err := NewLifespan(content.ModuleSpec{}); err == nil {
		t.Fatal("lifespan accepted life 0")
	}
	if _, err := NewWander(content.ModuleSpec{WanderRadius: 0}); err == nil {
		t.Fatal("wander accepted radius 0")
	}
	if _, err := NewWander(content.ModuleSpec{WanderRadius: 1, MinIdleTicks: 5, MaxIdleTicks: 2}); err == nil {
		t.Fatal("wander accepted max idle below min")
	}
	if _, err := NewSprite(content.ModuleSpec{}); err == nil {
		t.Fatal("sprite accepted empty mesh")
	}
}
