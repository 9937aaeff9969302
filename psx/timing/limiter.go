// Package timing paces real-time playback of the emulator against the
// host clock. It is not part of the cycle-accurate core itself (Step/
// RunUntilFrame run as fast as the host allows); cmd/psx's optional
// real-time playback mode uses a Limiter to throttle RunUntilFrame calls
// to the PSX's own frame rate instead of redlining a core. Adapted from
// the teacher's jeebie/timing package: same Limiter interface and
// no-op/ticker implementations, with the Game Boy's fixed 70224-cycle,
// 4.194304 MHz frame constants replaced by the PSX's NTSC video timing.
package timing

import "time"

// Limiter paces a render loop to a target frame rate.
type Limiter interface {
	// WaitForNextFrame blocks until it is time to render the next frame.
	WaitForNextFrame()

	// Reset clears any accumulated timing debt, used after a pause or a
	// long-running headless stretch so playback doesn't try to "catch up"
	// by bursting frames.
	Reset()
}

// NewNoOpLimiter returns a Limiter that never blocks, for headless/
// benchmark runs where RunUntilFrame should proceed as fast as possible.
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// PSX NTSC video timing: ~33.8688 MHz system clock, 60 Hz-ish field rate.
// The exact per-frame cycle count varies slightly with GPU.CyclesPerVBlank
// (it depends on the live video mode), so FrameDuration here is a nominal
// pacing target for real-time playback, not the authoritative scheduler
// period the core itself uses.
const (
	CPUFrequency       = 33_868_800
	NominalFPS         = 60.0
	CyclesPerNTSCFrame = uint64(CPUFrequency / NominalFPS)
)

// TargetFPS returns the nominal PSX NTSC field rate.
func TargetFPS() float64 {
	return NominalFPS
}

// FrameDuration returns the target wall-clock duration of one frame at
// TargetFPS.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}
