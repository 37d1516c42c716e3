// Package pacing turns raw text into a timed sequence of words for RSVP display.
package pacing

import "time"

// Reading speed bounds in words per minute.
const (
	DefaultWPM = 300
	MinWPM     = 100
	MaxWPM     = 1000
	WPMStep    = 50
)

// Delay multipliers applied when punctuation sensitivity is on.
const (
	SentenceEndDelay  = 2.5
	CommaDelay        = 1.5
	LongWordDelay     = 1.3
	VeryLongWordDelay = 1.5
	ShortWordDelay    = 0.8
)

// Word length thresholds, in runes.
const (
	LongWordThreshold     = 8
	VeryLongWordThreshold = 12
	ShortWordThreshold    = 3
)

// Word is one display unit: a whitespace-free token and how long it stays on screen.
type Word struct {
	Text  string
	Delay time.Duration
}

// Sequence is an ordered list of words in reading order.
type Sequence []Word

// ClampWPM forces wpm into [MinWPM, MaxWPM] and snaps it to the nearest WPMStep.
func ClampWPM(wpm int) int {
	if wpm <= MinWPM {
		return MinWPM
	}
	if wpm >= MaxWPM {
		return MaxWPM
	}
	n := (wpm - MinWPM + WPMStep/2) / WPMStep
	return min(MaxWPM, MinWPM+n*WPMStep)
}

// BaseDelay returns the unmodified per-word interval in milliseconds.
func BaseDelay(wpm int) float64 {
	return 60000 / float64(ClampWPM(wpm))
}
