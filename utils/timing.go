package utils

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
)

// Timer is a scoped timing handle. Acquire it at the top of an operation
// and defer Stop; the duration is then recorded exactly once on every exit
// path, fault or not.
//
//	tm := utils.StartTimer(logger, "fetch_posts")
//	defer tm.Stop()
type Timer struct {
	name    string
	logger  types.Logger
	start   time.Time
	elapsed time.Duration
	stopped bool
}

func StartTimer(logger types.Logger, name string) *Timer {
	return &Timer{
		name:   name,
		logger: logger,
		start:  time.Now(),
	}
}

// Stop freezes and returns the elapsed duration. Subsequent calls return
// the frozen value without logging again, so Stop can be both deferred and
// called inline to read the duration.
func (t *Timer) Stop() time.Duration {
	if t.stopped {
		return t.elapsed
	}

	t.stopped = true
	t.elapsed = time.Since(t.start)

	if t.logger != nil {
		t.logger.Debug("operation finished",
			zap.String("operation", t.name),
			zap.Duration("elapsed", t.elapsed))
	}

	return t.elapsed
}

// Elapsed reads the running duration without stopping the timer.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return time.Since(t.start)
}

// FormatTiming renders a duration as milliseconds with three decimals for
// console output.
func FormatTiming(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
