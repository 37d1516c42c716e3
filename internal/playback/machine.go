package playback

import (
	"log/slog"
	"time"

	"github.com/jwulff/touchread/internal/pacing"
)

// DefaultRewindPeriod is the interval between decrements while rewind is held.
const DefaultRewindPeriod = 100 * time.Millisecond

// Machine is the playback state machine.
type Machine struct {
	sched    Scheduler
	observer Observer
	log      *slog.Logger

	words pacing.Sequence
	index int
	state State

	wpm       int
	sensitive bool

	// fwdGen is bumped on every arm and every cancel of the forward timer.
	fwdGen uint64

	rewinding    bool
	rewGen       uint64
	rewindPeriod time.Duration
}

// Option configures a Machine.
type Option func(*Machine)

// WithObserver registers the snapshot observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observer = o }
}

// WithSettings sets the initial speed and punctuation sensitivity.
func WithSettings(wpm int, punctuationSensitive bool) Option {
	return func(m *Machine) {
		m.wpm = pacing.ClampWPM(wpm)
		m.sensitive = punctuationSensitive
	}
}

// WithRewindPeriod overrides DefaultRewindPeriod.
func WithRewindPeriod(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.rewindPeriod = d
		}
	}
}

// WithLogger sets the logger used for transition tracing.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// New creates an empty Machine that arms its timers through s.
func New(s Scheduler, opts ...Option) *Machine {
	m := &Machine{
		sched:        s,
		log:          slog.New(slog.DiscardHandler),
		state:        StateEmpty,
		wpm:          pacing.DefaultWPM,
		sensitive:    true,
		rewindPeriod: DefaultRewindPeriod,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Index returns the current position.
func (m *Machine) Index() int { return m.index }

// Words returns the loaded sequence. Callers must not modify it.
func (m *Machine) Words() pacing.Sequence { return m.words }

// Settings returns the speed and punctuation sensitivity in effect.
func (m *Machine) Settings() (wpm int, punctuationSensitive bool) {
	return m.wpm, m.sensitive
}

// Snapshot returns the current render state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Index:                m.index,
		Length:               len(m.words),
		Running:              m.state == StateRunning,
		Finished:             m.state == StateFinished,
		Rewinding:            m.rewinding,
		State:                m.state,
		WPM:                  m.wpm,
		PunctuationSensitive: m.sensitive,
	}
	if m.index < len(m.words) {
		s.Word = m.words[m.index].Text
		s.Remaining = m.words.Remaining(m.index)
	}
	return s
}

// Load replaces the sequence with a fresh segmentation of text and rewinds
// to the first word. Any armed timer is canceled.
func (m *Machine) Load(text string) {
	m.Restore(text, 0)
}

// Restore is Load followed by placing the position at index, clamped to the
// new sequence.
func (m *Machine) Restore(text string, index int) {
	m.cancelForward()
	m.cancelRewind()
	m.words = pacing.Segment(text, m.wpm, m.sensitive)
	m.index = m.clamp(index)
	m.state = StateIdle
	m.log.Debug("load", "words", len(m.words), "index", m.index)
	m.emit()
}

// Play starts forward playback from the current word. It is a no-op unless
// the machine is idle with a word left to show.
func (m *Machine) Play() {
	if m.state != StateIdle || len(m.words) == 0 {
		return
	}
	if m.index >= len(m.words)-1 && len(m.words) != 1 {
		return
	}
	m.state = StateRunning
	m.armForward()
	m.log.Debug("play", "index", m.index)
	m.emit()
}

// Pause stops forward playback and keeps the current word on screen.
func (m *Machine) Pause() {
	if m.state != StateRunning {
		return
	}
	m.cancelForward()
	m.state = StateIdle
	m.log.Debug("pause", "index", m.index)
	m.emit()
}

// Toggle pauses when running and plays otherwise.
func (m *Machine) Toggle() {
	if m.state == StateRunning {
		m.Pause()
		return
	}
	m.Play()
}

// StepForward moves one word ahead while not running.
func (m *Machine) StepForward() {
	m.step(1)
}

// StepBackward moves one word back while not running.
func (m *Machine) StepBackward() {
	m.step(-1)
}

func (m *Machine) step(delta int) {
	if m.state != StateIdle && m.state != StateFinished {
		return
	}
	m.cancelForward()
	next := m.clamp(m.index + delta)
	if next == m.index {
		return
	}
	m.index = next
	if m.state == StateFinished {
		m.state = StateIdle
	}
	m.emit()
}

// Restart returns to the first word and stops playback. It applies when the
// position is past the first word or playback has finished.
func (m *Machine) Restart() {
	if m.state == StateEmpty {
		return
	}
	if m.index == 0 && m.state != StateFinished {
		return
	}
	m.cancelForward()
	m.cancelRewind()
	m.index = 0
	m.state = StateIdle
	m.log.Debug("restart")
	m.emit()
}

// Clear discards the sequence.
func (m *Machine) Clear() {
	if m.state == StateEmpty {
		return
	}
	m.cancelForward()
	m.cancelRewind()
	m.words = nil
	m.index = 0
	m.state = StateEmpty
	m.log.Debug("clear")
	m.emit()
}

// SetSettings recomputes every delay for a new speed or punctuation setting.
// The position is kept. A running timer is re-armed with the current word's
// new delay.
func (m *Machine) SetSettings(wpm int, punctuationSensitive bool) {
	wpm = pacing.ClampWPM(wpm)
	if wpm == m.wpm && punctuationSensitive == m.sensitive {
		return
	}
	m.wpm = wpm
	m.sensitive = punctuationSensitive
	if m.state != StateEmpty {
		m.words = m.words.Resegment(m.wpm, m.sensitive)
	}
	if m.state == StateRunning {
		m.cancelForward()
		m.armForward()
	}
	m.log.Debug("settings", "wpm", m.wpm, "punctuation", m.sensitive)
	m.emit()
}

// Fire delivers an expired timer. Stale timers are ignored.
func (m *Machine) Fire(t Timer) {
	switch t.Kind {
	case TimerForward:
		m.fireForward(t)
	case TimerRewind:
		m.fireRewind(t)
	}
}

func (m *Machine) fireForward(t Timer) {
	if t.Gen != m.fwdGen || m.state != StateRunning {
		m.log.Debug("stale timer", "kind", t.Kind, "gen", t.Gen, "current", m.fwdGen)
		return
	}
	if m.index >= len(m.words)-1 {
		m.index = max(0, len(m.words)-1)
		m.cancelForward()
		m.state = StateFinished
		m.log.Debug("finished", "index", m.index)
		m.emit()
		return
	}
	m.index++
	m.armForward()
	m.emit()
}

func (m *Machine) armForward() {
	m.fwdGen++
	m.sched.Schedule(Timer{Kind: TimerForward, Gen: m.fwdGen, Delay: m.words[m.index].Delay})
}

func (m *Machine) cancelForward() {
	m.fwdGen++
}

func (m *Machine) clamp(i int) int {
	if len(m.words) == 0 || i < 0 {
		return 0
	}
	return min(i, len(m.words)-1)
}

func (m *Machine) emit() {
	if m.observer != nil {
		m.observer(m.Snapshot())
	}
}
