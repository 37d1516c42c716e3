package playback

// Rewinding reports whether the rewind timer is repeating.
func (m *Machine) Rewinding() bool { return m.rewinding }

// RewindStart steps back one word now, then keeps stepping back every rewind
// period until the first word or RewindStop. The forward timer is left alone;
// callers only offer rewind while paused.
func (m *Machine) RewindStart() {
	if m.rewinding || len(m.words) == 0 {
		return
	}
	if m.index == 0 {
		return
	}
	m.rewindOne()
	if m.index > 0 {
		m.rewinding = true
		m.armRewind()
	}
	m.log.Debug("rewind start", "index", m.index)
	m.emit()
}

// RewindStop cancels the rewind timer. The position stays where it stopped.
func (m *Machine) RewindStop() {
	if !m.rewinding {
		return
	}
	m.cancelRewind()
	m.log.Debug("rewind stop", "index", m.index)
	m.emit()
}

func (m *Machine) fireRewind(t Timer) {
	if !m.rewinding || t.Gen != m.rewGen {
		m.log.Debug("stale timer", "kind", t.Kind, "gen", t.Gen, "current", m.rewGen)
		return
	}
	m.rewindOne()
	if m.index == 0 {
		m.cancelRewind()
	} else {
		m.armRewind()
	}
	m.emit()
}

func (m *Machine) rewindOne() {
	if m.index > 0 {
		m.index--
	}
	if m.state == StateFinished {
		m.state = StateIdle
	}
}

func (m *Machine) armRewind() {
	m.rewGen++
	m.sched.Schedule(Timer{Kind: TimerRewind, Gen: m.rewGen, Delay: m.rewindPeriod})
}

func (m *Machine) cancelRewind() {
	m.rewGen++
	m.rewinding = false
}
