package timing

import "time"

// TickerLimiter paces playback with a time.Ticker. Less precise than an
// adaptive sleep-and-correct limiter but simple and good enough for a
// terminal/headless frontend; matches the teacher's TickerLimiter shape.
type TickerLimiter struct {
	ticker *time.Ticker
	ch     <-chan time.Time
}

// NewTickerLimiter returns a limiter ticking at TargetFPS.
func NewTickerLimiter() *TickerLimiter {
	ticker := time.NewTicker(FrameDuration())
	return &TickerLimiter{ticker: ticker, ch: ticker.C}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration())
}

// Stop releases the underlying ticker's resources.
func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
