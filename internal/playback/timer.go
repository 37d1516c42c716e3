package playback

import "time"

// TimerKind distinguishes the forward timer from the rewind timer.
type TimerKind int

const (
	TimerForward TimerKind = iota
	TimerRewind
)

// String returns the timer kind name.
func (k TimerKind) String() string {
	switch k {
	case TimerForward:
		return "forward"
	case TimerRewind:
		return "rewind"
	default:
		return "unknown"
	}
}

// Timer is a one-shot timer request. Gen identifies the arming; a fire whose
// Gen no longer matches the machine's is stale and gets dropped.
type Timer struct {
	Kind  TimerKind
	Gen   uint64
	Delay time.Duration
}

// Scheduler arms timers. Once Delay has elapsed the owner must pass the same
// Timer to Machine.Fire from the machine's goroutine. Schedulers need not
// support cancelation.
type Scheduler interface {
	Schedule(t Timer)
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(Timer)

// Schedule calls f(t).
func (f SchedulerFunc) Schedule(t Timer) { f(t) }
