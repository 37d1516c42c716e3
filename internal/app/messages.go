package app

import (
	"github.com/jwulff/touchread/internal/playback"
	"github.com/jwulff/touchread/internal/progress"
	"github.com/jwulff/touchread/internal/settings"
)

// TickMsg carries an expired playback timer back to the machine.
type TickMsg struct {
	Timer playback.Timer
}

// StartupMsg carries what was persisted by the previous run.
type StartupMsg struct {
	Settings *settings.Settings
	Reading  *progress.ReadingState
	Err      error
}

// TextLoadedMsg carries text picked from the load menu.
type TextLoadedMsg struct {
	Text   string
	Source string
	Err    error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
