// Package control exposes a headless reader over a Unix socket using NDJSON:
// clients send transport intents and subscribers receive a snapshot after
// every change.
package control

import (
	"strings"

	"github.com/jwulff/touchread/internal/playback"
)

// Command names accepted by the server.
const (
	CmdStatus      = "status"
	CmdLoad        = "load"
	CmdHoldStart   = "hold_start"
	CmdHoldEnd     = "hold_end"
	CmdToggle      = "toggle"
	CmdStepBack    = "step_back"
	CmdStepForward = "step_forward"
	CmdRestart     = "restart"
	CmdClear       = "clear"
	CmdRewindStart = "rewind_start"
	CmdRewindStop  = "rewind_stop"
	CmdSettings    = "settings"
	CmdSubscribe   = "subscribe"
)

// EventSnapshot is the only event type streamed to subscribers.
const EventSnapshot = "snapshot"

// Command is sent from a client to the server.
type Command struct {
	Cmd         string `json:"cmd"`
	Text        string `json:"text,omitempty"`
	WPM         *int   `json:"wpm,omitempty"`
	Punctuation *bool  `json:"punctuation,omitempty"`
}

// Response is returned by the server after processing a command.
type Response struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Event is streamed from the server to subscribed clients.
type Event struct {
	Event    string    `json:"event"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Snapshot is the wire form of playback.Snapshot.
type Snapshot struct {
	Word        string  `json:"word"`
	Index       int     `json:"index"`
	Length      int     `json:"length"`
	Running     bool    `json:"running"`
	Finished    bool    `json:"finished"`
	Rewinding   bool    `json:"rewinding,omitempty"`
	State       string  `json:"state"`
	WPM         int     `json:"wpm"`
	Punctuation bool    `json:"punctuation"`
	RemainingMS int64   `json:"remainingMs"`
	Progress    float64 `json:"progress"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building commands.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to an int value. Convenience for building commands.
func IntPtr(i int) *int { return &i }

func wireSnapshot(s playback.Snapshot, progress float64) *Snapshot {
	return &Snapshot{
		Word:        s.Word,
		Index:       s.Index,
		Length:      s.Length,
		Running:     s.Running,
		Finished:    s.Finished,
		Rewinding:   s.Rewinding,
		State:       strings.ToLower(s.State.String()),
		WPM:         s.WPM,
		Punctuation: s.PunctuationSensitive,
		RemainingMS: s.Remaining.Milliseconds(),
		Progress:    progress,
	}
}
