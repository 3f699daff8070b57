// Package clock tracks the two frame counters the engine runs on: the logic
// frame, advanced once per fixed simulation tick, and the render frame,
// advanced once per presented frame. The logic counter is the time basis for
// the wake queue and the replay key for deterministic re-simulation.
package clock

import "time"

// Clock is the single source of truth for "what frame is it". Only the logic
// driver advances the logic counter and only the render driver advances the
// render counter; everything else reads.
type Clock struct {
	tickDuration time.Duration
	logicFrame   uint64
	renderFrame  uint64
}

func New(tickDuration time.Duration) *Clock {
	return &Clock{tickDuration: tickDuration}
}

// TickDuration returns the fixed duration of one logic tick.
func (c *Clock) TickDuration() time.Duration { return c.tickDuration }

// LogicFrame returns the current logic frame. Frame 0 means no tick has run.
func (c *Clock) LogicFrame() uint64 { return c.logicFrame }

// RenderFrame returns the number of frames presented so far.
func (c *Clock) RenderFrame() uint64 { return c.renderFrame }

// AdvanceLogicFrame increments the logic counter by exactly one. Called by the
// logic driver at the start of a tick, never anywhere else.
func (c *Clock) AdvanceLogicFrame() uint64 {
	c.logicFrame++
	return c.logicFrame
}

// AdvanceRenderFrame increments the render counter. It has no effect on logic
// state.
func (c *Clock) AdvanceRenderFrame() uint64 {
	c.renderFrame++
	return c.renderFrame
}

// Restore overwrites both counters, used when resuming from a snapshot.
func (c *Clock) Restore(logicFrame, renderFrame uint64) {
	c.logicFrame = logicFrame
	c.renderFrame = renderFrame
}
