package clock

import (
	"testing"
	"time"
)

func TestCountersAdvanceIndependently(t *testing.T) {
	c := New(33 * time.Millisecond)
	if c.LogicFrame() != 0 || c.RenderFrame() != 0 {
		t.Fatal("fresh clock not at frame 0")
	}

	if got := c.AdvanceLogicFrame(); got != 1 {
		t.Fatalf("first logic advance = %d", got)
	}
	c.AdvanceLogicFrame()
	c.AdvanceRenderFrame()

	if c.LogicFrame() != 2 {
		t.Fatalf("logic frame = %d, want 2", c.LogicFrame())
	}
	if c.RenderFrame() != 1 {
		t.Fatalf("render frame = %d, want 1", c.RenderFrame())
	}
	if c.TickDuration() != 33*time.Millisecond {
		t.Fatalf("tick duration = %s", c.TickDuration())
	}
}

func TestRestoreOverwritesBothCounters(t *testing.T) {
	c := New(time.Millisecond)
	c.AdvanceLogicFrame()
	c.Restore(500, 900)
	if c.LogicFrame() != 500 || c.RenderFrame() != 900 {
		t.Fatalf("restored to (%d, %d)", c.LogicFrame(), c.RenderFrame())
	}
}
