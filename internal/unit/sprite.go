package unit

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/core/sched"
	"github.com/rtsforge/sagecore/internal/entity"
	"github.com/rtsforge/sagecore/internal/render"
)

// Sprite is the draw module: it samples the entity transform every tick and
// serves interpolated positions to the render driver. It runs on the
// always-on cadence, and its state is render-only, so it deliberately does
// not persist; a loaded game re-primes itself on the first tick.
type Sprite struct {
	owner    *entity.Entity
	mesh     string
	material string

	prev   mgl64.Vec3
	cur    mgl64.Vec3
	primed bool
}

func NewSprite(spec content.ModuleSpec) (entity.Module, error) {
	if spec.Mesh == "" {
		return nil, fmt.Errorf("sprite module needs a mesh")
	}
	return &Sprite{mesh: spec.Mesh, material: spec.Material}, nil
}

func (s *Sprite) Kind() string              { return "sprite" }
func (s *Sprite) Category() entity.Category { return entity.CategoryDraw }
func (s *Sprite) OnAttach(e *entity.Entity) { s.owner = e }
func (s *Sprite) OnDetach(*entity.Entity)   { s.owner = nil }

func (s *Sprite) InitialSleep() sched.Sleep { return sched.NextTick() }

func (s *Sprite) Update(e *entity.Entity, _ *entity.Tick) sched.Sleep {
	if !s.primed {
		s.prev = e.Transform.Pos
		s.primed = true
	} else {
		s.prev = s.cur
	}
	s.cur = e.Transform.Pos
	return sched.NextTick()
}

// Render builds this entity's submission, interpolating between the last two
// logic positions. Read-only by contract.
func (s *Sprite) Render(alpha float64) (render.Submission, error) {
	if s.owner == nil {
		return render.Submission{}, fmt.Errorf("sprite detached")
	}
	if s.mesh == "" {
		return render.Submission{}, fmt.Errorf("sprite for entity %d has no mesh", s.owner.ID())
	}
	pos := s.cur
	if s.primed {
		pos = render.Lerp(s.prev, s.cur, alpha)
	} else {
		pos = s.owner.Transform.Pos
	}
	return render.Submission{
		Entity:   uint64(s.owner.ID()),
		Mesh:     s.mesh,
		Material: s.material,
		Pos:      pos,
		Yaw:      s.owner.Transform.Yaw,
	}, nil
}
