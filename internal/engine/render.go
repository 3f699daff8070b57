package engine

import (
	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/core/clock"
	"github.com/rtsforge/sagecore/internal/entity"
	"github.com/rtsforge/sagecore/internal/render"
)

// RenderDriver builds the render-submission list once per presented frame.
// It holds a read-only view of the directory: it walks entities and their
// draw modules, never the wake queue, and never mutates simulation state.
type RenderDriver struct {
	log     *zap.Logger
	clock   *clock.Clock
	dir     *entity.Directory
	backend render.Backend

	subs []render.Submission // reused between frames
}

func NewRenderDriver(d *Driver, backend render.Backend) *RenderDriver {
	return &RenderDriver{
		log:     d.log,
		clock:   d.clock,
		dir:     d.dir,
		backend: backend,
	}
}

// Frame advances the render counter and presents the current state. alpha is
// the fixed-step remainder for interpolation. Rendering is best-effort: a
// failing entity is skipped for the frame and a failing backend loses the
// frame, neither touches the simulation.
func (r *RenderDriver) Frame(alpha float64) {
	frame := r.clock.AdvanceRenderFrame()
	r.subs = r.subs[:0]
	r.dir.Each(func(e *entity.Entity) bool {
		e.EachOf(entity.CategoryDraw, func(slot uint8, m entity.Module) bool {
			rd, ok := m.(render.Renderable)
			if !ok {
				return true
			}
			sub, err := rd.Render(alpha)
			if err != nil {
				r.log.Warn("skipping entity render",
					zap.Uint64("entity", uint64(e.ID())),
					zap.Uint8("slot", slot),
					zap.Error(err))
				return true
			}
			r.subs = append(r.subs, sub)
			return true
		})
		return true
	})
	if err := r.backend.Present(frame, r.subs); err != nil {
		r.log.Warn("present failed", zap.Uint64("frame", frame), zap.Error(err))
	}
}
