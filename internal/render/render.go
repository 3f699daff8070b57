// Package render defines the boundary between the simulation and whatever
// draws it: an ordered list of submissions built once per presented frame from
// read-only entity state, handed to an opaque backend. Nothing in this
// package mutates simulation state.
package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Submission is one entity's contribution to a presented frame. The engine
// makes no assumption about what the backend does with it.
type Submission struct {
	Entity   uint64
	Mesh     string
	Material string
	Pos      mgl64.Vec3
	Yaw      float64
}

// Renderable is the capability of modules that contribute to the frame.
// alpha is the fixed-step remainder in [0, 1) for visual interpolation between
// the last two logic states; implementations must only read.
type Renderable interface {
	Render(alpha float64) (Submission, error)
}

// Backend receives the submission list once per presented frame. The engine
// treats it as fire-and-forget; a failing backend loses frames, never
// simulation state.
type Backend interface {
	Present(frame uint64, subs []Submission) error
}

// Lerp interpolates between two logic positions for smooth presentation at
// render rates above the tick rate.
func Lerp(prev, cur mgl64.Vec3, alpha float64) mgl64.Vec3 {
	return prev.Add(cur.Sub(prev).Mul(alpha))
}

// NopBackend discards frames. Used headless and in tests.
type NopBackend struct{}

func (NopBackend) Present(uint64, []Submission) error { return nil }

// DebugBackend logs a per-frame summary, which is as close to pixels as a
// headless build gets.
type DebugBackend struct {
	Log *zap.Logger
}

func (b DebugBackend) Present(frame uint64, subs []Submission) error {
	b.Log.Debug("present",
		zap.Uint64("frame", frame),
		zap.Int("submissions", len(subs)))
	return nil
}
