package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const tpsSampleSize = 20

// Loop is the top-level orchestrator: a fixed-step accumulator that runs zero
// or more logic ticks per presented frame, then renders exactly once. Logic
// and render interleave cooperatively on one goroutine; that, not locking, is
// what keeps render reads race-free against tick mutations.
type Loop struct {
	log        *zap.Logger
	driver     *Driver
	render     *RenderDriver
	frameEvery time.Duration
	catchupMax int

	// tick health sampling
	tickSum   time.Duration
	tickCount int
}

// NewLoop builds the orchestrator. frameEvery is the presentation cadence;
// catchupMax caps logic ticks per frame so a long stall degrades to slowdown
// instead of a spiral of death.
func NewLoop(driver *Driver, render *RenderDriver, frameEvery time.Duration, catchupMax int) *Loop {
	if catchupMax < 1 {
		catchupMax = 1
	}
	return &Loop{
		log:        driver.log,
		driver:     driver,
		render:     render,
		frameEvery: frameEvery,
		catchupMax: catchupMax,
	}
}

// Run drives the loop until the context is cancelled. The accumulator feeds
// the logic driver wall time only as whole fixed-duration ticks; the
// remainder becomes the render interpolation alpha.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.frameEvery)
	defer ticker.Stop()

	tickDur := l.driver.clock.TickDuration()
	last := time.Now()
	var acc time.Duration

	for {
		select {
		case <-ctx.Done():
			l.log.Info("loop stopping",
				zap.Uint64("logic_frame", l.driver.clock.LogicFrame()),
				zap.Uint64("render_frame", l.driver.clock.RenderFrame()))
			return nil
		case now := <-ticker.C:
			acc += now.Sub(last)
			last = now

			steps := 0
			for acc >= tickDur {
				if steps >= l.catchupMax {
					// Too far behind to catch up this frame; shed the
					// backlog rather than stall presentation.
					l.log.Warn("logic behind, shedding accumulated time",
						zap.Duration("shed", acc),
						zap.Uint64("frame", l.driver.clock.LogicFrame()))
					acc = 0
					break
				}
				start := time.Now()
				l.driver.Tick()
				l.observeTick(time.Since(start), tickDur)
				acc -= tickDur
				steps++
			}

			alpha := float64(acc) / float64(tickDur)
			l.render.Frame(alpha)
		}
	}
}

// observeTick keeps a rolling average of tick cost and warns when the
// simulation no longer fits its budget.
func (l *Loop) observeTick(cost, budget time.Duration) {
	l.tickSum += cost
	l.tickCount++
	if l.tickCount < tpsSampleSize {
		return
	}
	avg := l.tickSum / time.Duration(l.tickCount)
	l.tickSum, l.tickCount = 0, 0
	if avg > budget {
		l.log.Warn("ticks exceeding budget",
			zap.Duration("avg", avg),
			zap.Duration("budget", budget))
	}
}
