// Package playback drives a paced word sequence: play, pause, step, rewind and
// restart over a single authoritative timer.
//
// A Machine never sleeps. It asks a Scheduler to arm one-shot timers and the
// owner hands expiries back through Fire. All calls must come from one
// goroutine (an event loop such as a bubbletea Update).
package playback

import "time"

// State is the coarse playback state.
type State int

const (
	StateEmpty State = iota
	StateIdle
	StateRunning
	StateFinished
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Snapshot is what a render sink needs after every mutation.
type Snapshot struct {
	Word      string
	Index     int
	Length    int
	Running   bool
	Finished  bool
	Rewinding bool
	State     State

	WPM                  int
	PunctuationSensitive bool

	// Remaining is the time left from the current word to the end.
	Remaining time.Duration
}

// Observer receives a Snapshot synchronously after each state change.
type Observer func(Snapshot)
