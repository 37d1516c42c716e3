package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jwulff/touchread/internal/playback"
	"github.com/jwulff/touchread/internal/progress"
	"github.com/jwulff/touchread/internal/settings"

	tea "github.com/charmbracelet/bubbletea"
)

// memStore keeps settings and the reading in memory.
type memStore struct {
	settings *settings.Settings
	reading  *progress.ReadingState
	loadErr  error
}

func (s *memStore) LoadSettings(context.Context) (*settings.Settings, error) {
	return s.settings, s.loadErr
}

func (s *memStore) SaveSettings(_ context.Context, st settings.Settings) error {
	s.settings = &st
	return nil
}

func (s *memStore) LoadReadingState(context.Context) (*progress.ReadingState, error) {
	return s.reading, nil
}

func (s *memStore) SaveReadingState(_ context.Context, st progress.ReadingState) error {
	s.reading = &st
	return nil
}

func (s *memStore) ClearReadingState(context.Context) error {
	s.reading = nil
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case KeySpace:
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case KeyLeft:
		return tea.KeyMsg{Type: tea.KeyLeft}
	case KeyRight:
		return tea.KeyMsg{Type: tea.KeyRight}
	case KeyUp:
		return tea.KeyMsg{Type: tea.KeyUp}
	case KeyDown:
		return tea.KeyMsg{Type: tea.KeyDown}
	case KeyEnter:
		return tea.KeyMsg{Type: tea.KeyEnter}
	case KeyEsc:
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// started returns a model that has handled its startup message.
func started(t *testing.T, opts Options, msg StartupMsg) Model {
	t.Helper()
	m := New(opts)
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = applyUpdate(m, msg)
	return m
}

func TestNewModel(t *testing.T) {
	m := New(Options{})
	if m.snap.State != playback.StateEmpty {
		t.Errorf("state = %v, want Empty", m.snap.State)
	}
	if m.settings != settings.Default() {
		t.Errorf("settings = %+v, want defaults", m.settings)
	}
	if m.started {
		t.Error("new model should not be started")
	}
}

func TestStartupLoadsDefaultText(t *testing.T) {
	m := started(t, Options{}, StartupMsg{})

	if m.snap.State != playback.StateIdle {
		t.Fatalf("state = %v, want Idle", m.snap.State)
	}
	if m.snap.Word != "Welcome" {
		t.Errorf("word = %q, want Welcome", m.snap.Word)
	}
}

func TestStartupPrefersCommandLineText(t *testing.T) {
	store := &memStore{reading: &progress.ReadingState{Content: "old text here", Progress: 50}}
	m := started(t, Options{Store: store, Text: "  Hello world.  "}, StartupMsg{Reading: store.reading})

	if m.snap.Word != "Hello" || m.snap.Length != 2 {
		t.Errorf("snapshot = %+v, want Hello of 2", m.snap)
	}
	if store.reading == nil || store.reading.Content != "Hello world." {
		t.Errorf("saved reading = %+v, want the new text", store.reading)
	}
}

func TestStartupResumesReading(t *testing.T) {
	reading := &progress.ReadingState{Content: "a b c d", Progress: 50}
	store := &memStore{reading: reading}
	m := started(t, Options{Store: store}, StartupMsg{Reading: reading})

	if m.snap.Index != 2 || m.snap.Word != "c" {
		t.Errorf("snapshot = %+v, want index 2 at c", m.snap)
	}
	if !strings.HasPrefix(m.statusText, "Resumed") {
		t.Errorf("status = %q", m.statusText)
	}
}

func TestStartupAppliesSavedSettings(t *testing.T) {
	saved := settings.Default()
	saved.WPM = 500
	saved.PunctuationSensitive = false
	m := started(t, Options{}, StartupMsg{Settings: &saved})

	if wpm, punct := m.machine.Settings(); wpm != 500 || punct {
		t.Errorf("machine settings = %d/%v, want 500/false", wpm, punct)
	}
}

func TestStartupError(t *testing.T) {
	m := started(t, Options{}, StartupMsg{Err: errors.New("disk on fire")})

	if !strings.Contains(m.errorMessage, "disk on fire") {
		t.Errorf("error = %q", m.errorMessage)
	}
	if m.snap.Word != "Welcome" {
		t.Errorf("word = %q, want the default text anyway", m.snap.Word)
	}
}

func TestSpaceTogglesAndArmsTimer(t *testing.T) {
	m := started(t, Options{Text: "Hello world."}, StartupMsg{})

	m, cmd := applyUpdate(m, key(KeySpace))
	if !m.snap.Running {
		t.Fatal("space should start reading")
	}
	if cmd == nil {
		t.Fatal("starting should arm a tick")
	}

	m, _ = applyUpdate(m, key(KeySpace))
	if m.snap.Running || m.snap.Index != 0 {
		t.Errorf("after second space = %+v, want paused at 0", m.snap)
	}
}

func TestTickAdvances(t *testing.T) {
	m := started(t, Options{Text: "one two", Defaults: settings.Settings{WPM: 1000}}, StartupMsg{})

	m, cmd := applyUpdate(m, key(KeySpace))
	for _, msg := range collect(cmd) {
		m, _ = applyUpdate(m, msg)
	}
	if m.snap.Index != 1 || m.snap.Word != "two" {
		t.Errorf("after tick = %+v, want index 1", m.snap)
	}
	if !m.snap.Running {
		t.Error("should still be running on the last word")
	}
}

func TestStaleTickIgnored(t *testing.T) {
	m := started(t, Options{Text: "one two three", Defaults: settings.Settings{WPM: 1000}}, StartupMsg{})

	m, cmd := applyUpdate(m, key(KeySpace))
	m, _ = applyUpdate(m, key(KeySpace))
	for _, msg := range collect(cmd) {
		m, _ = applyUpdate(m, msg)
	}
	if m.snap.Index != 0 || m.snap.Running {
		t.Errorf("stale tick moved the reader: %+v", m.snap)
	}
}

func TestStepKeys(t *testing.T) {
	m := started(t, Options{Text: "a b c"}, StartupMsg{})

	m, _ = applyUpdate(m, key(KeyRight))
	m, _ = applyUpdate(m, key(KeyRight))
	m, _ = applyUpdate(m, key(KeyRight))
	if m.snap.Index != 2 {
		t.Errorf("index = %d, want 2 (clamped)", m.snap.Index)
	}
	m, _ = applyUpdate(m, key(KeyLeft))
	if m.snap.Index != 1 {
		t.Errorf("index = %d, want 1", m.snap.Index)
	}

	m, _ = applyUpdate(m, key(KeySpace))
	m, _ = applyUpdate(m, key(KeyRight))
	if m.snap.Index != 1 {
		t.Errorf("step while running moved to %d", m.snap.Index)
	}
}

func TestMouseHold(t *testing.T) {
	m := started(t, Options{Text: "a b c"}, StartupMsg{})

	m, _ = applyUpdate(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.snap.Running {
		t.Fatal("left press should start reading")
	}
	m, _ = applyUpdate(m, tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if m.snap.Running {
		t.Error("release should pause")
	}
}

func TestRightMouseRewinds(t *testing.T) {
	m := started(t, Options{Text: "a b c d e"}, StartupMsg{})
	for i := 0; i < 4; i++ {
		m, _ = applyUpdate(m, key(KeyRight))
	}

	m, cmd := applyUpdate(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if m.snap.Index != 3 || !m.snap.Rewinding {
		t.Fatalf("after right press = %+v, want index 3 rewinding", m.snap)
	}
	if cmd == nil {
		t.Error("rewind should arm a tick")
	}

	m, _ = applyUpdate(m, tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonRight})
	if m.snap.Rewinding || m.snap.Index != 3 {
		t.Errorf("after release = %+v, want stopped at 3", m.snap)
	}
}

func TestRewindKeyToggles(t *testing.T) {
	m := started(t, Options{Text: "a b c d e"}, StartupMsg{})
	m, _ = applyUpdate(m, key(KeyRight))
	m, _ = applyUpdate(m, key(KeyRight))

	m, _ = applyUpdate(m, key(KeyRewind))
	if !m.snap.Rewinding {
		t.Fatal("b should start rewinding")
	}
	m, _ = applyUpdate(m, key(KeyRewind))
	if m.snap.Rewinding {
		t.Error("second b should stop rewinding")
	}
}

func TestRestartKey(t *testing.T) {
	m := started(t, Options{Text: "a b c"}, StartupMsg{})
	m, _ = applyUpdate(m, key(KeyRight))
	m, _ = applyUpdate(m, key(KeyRestart))
	if m.snap.Index != 0 || m.snap.State != playback.StateIdle {
		t.Errorf("after restart = %+v", m.snap)
	}
}

func TestProgressSavedOnStep(t *testing.T) {
	store := &memStore{}
	m := started(t, Options{Store: store, Text: "a b c d"}, StartupMsg{})

	m, _ = applyUpdate(m, key(KeyRight))
	if store.reading == nil || store.reading.Progress != 25 {
		t.Fatalf("saved reading = %+v, want 25%%", store.reading)
	}
	if store.reading.Content != "a b c d" {
		t.Errorf("content = %q", store.reading.Content)
	}
}

func TestEscClearsAndForgets(t *testing.T) {
	store := &memStore{}
	m := started(t, Options{Store: store, Text: "a b c d"}, StartupMsg{})

	m, _ = applyUpdate(m, key(KeyEsc))
	if m.snap.State != playback.StateEmpty {
		t.Errorf("state = %v, want Empty", m.snap.State)
	}
	if store.reading != nil {
		t.Errorf("reading = %+v, want cleared", store.reading)
	}
	if !strings.Contains(m.View(), "Nothing to read") {
		t.Error("empty view should offer to load text")
	}
}

func TestSpeedKeysPersist(t *testing.T) {
	store := &memStore{}
	m := started(t, Options{Store: store, Text: "Hello world."}, StartupMsg{})

	m, _ = applyUpdate(m, key(KeyFaster))
	if m.settings.WPM != 350 {
		t.Errorf("WPM = %d, want 350", m.settings.WPM)
	}
	if store.settings == nil || store.settings.WPM != 350 {
		t.Errorf("saved settings = %+v, want 350", store.settings)
	}
	if m.snap.WPM != 350 {
		t.Errorf("snapshot WPM = %d, want 350", m.snap.WPM)
	}

	m, _ = applyUpdate(m, key(KeySlower))
	m, _ = applyUpdate(m, key(KeySlower))
	if m.settings.WPM != 250 {
		t.Errorf("WPM = %d, want 250", m.settings.WPM)
	}
}

func TestPunctuationKey(t *testing.T) {
	m := started(t, Options{Text: "Hello world."}, StartupMsg{})
	m, _ = applyUpdate(m, key(KeyPunctuation))

	if m.settings.PunctuationSensitive {
		t.Error("p should turn punctuation pauses off")
	}
	if got := m.machine.Words()[1].Delay.Milliseconds(); got != 200 {
		t.Errorf("world. delay = %dms, want 200", got)
	}
}

func TestSettingsOverlay(t *testing.T) {
	m := started(t, Options{Text: "Hello world."}, StartupMsg{})

	m, _ = applyUpdate(m, key(KeySettings))
	if m.overlay != overlaySettings {
		t.Fatal("s should open settings")
	}
	// Step keys change values while the panel is open.
	m, _ = applyUpdate(m, key(KeyDown))
	m, _ = applyUpdate(m, key(KeyRight))
	if m.settings.FontSize != 64 {
		t.Errorf("font = %d, want 64", m.settings.FontSize)
	}
	if m.snap.Index != 0 {
		t.Errorf("index = %d, panel keys should not step", m.snap.Index)
	}
	m, _ = applyUpdate(m, key(KeyDown))
	m, _ = applyUpdate(m, key(KeyEnter))
	if m.settings.PunctuationSensitive {
		t.Error("enter should toggle punctuation pauses")
	}
	if !strings.Contains(m.View(), "SETTINGS") {
		t.Error("view should show the settings panel")
	}

	m, _ = applyUpdate(m, key(KeyEsc))
	if m.overlay != overlayNone || m.snap.State == playback.StateEmpty {
		t.Error("esc should close the panel without clearing")
	}
}

func TestOverlayPausesReading(t *testing.T) {
	m := started(t, Options{Text: "a b c"}, StartupMsg{})
	m, _ = applyUpdate(m, key(KeySpace))

	m, _ = applyUpdate(m, key(KeyHelp))
	if m.snap.Running {
		t.Error("opening help should pause")
	}
	if !strings.Contains(m.View(), "SHORTCUTS") {
		t.Error("view should show shortcuts")
	}
	m, _ = applyUpdate(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.snap.Running {
		t.Error("mouse should be ignored under a panel")
	}
	m, _ = applyUpdate(m, key(KeyHelp))
	if m.overlay != overlayNone {
		t.Error("k should close help")
	}
}

func TestLoadMenuSample(t *testing.T) {
	store := &memStore{}
	m := started(t, Options{Store: store}, StartupMsg{})

	m, _ = applyUpdate(m, key(KeyLoad))
	m, _ = applyUpdate(m, key(KeyDown))
	m, _ = applyUpdate(m, key(KeyEnter))

	if m.overlay != overlayNone {
		t.Error("loading should close the menu")
	}
	if m.snap.Word != "Speed" {
		t.Errorf("word = %q, want Speed", m.snap.Word)
	}
	if store.reading == nil || !strings.HasPrefix(store.reading.Content, "Speed reading") {
		t.Errorf("saved reading = %+v", store.reading)
	}
}

func TestLoadEmptyClipboard(t *testing.T) {
	m := started(t, Options{Text: "a b"}, StartupMsg{})

	m, cmd := applyUpdate(m, TextLoadedMsg{Text: "  \n ", Source: "clipboard"})
	if !strings.Contains(m.errorMessage, "no text to read") {
		t.Errorf("error = %q", m.errorMessage)
	}
	if cmd == nil {
		t.Error("transient error should schedule its own removal")
	}
	if m.snap.Word != "a" {
		t.Errorf("word = %q, current text should be kept", m.snap.Word)
	}

	m, _ = applyUpdate(m, ClearTransientErrorMsg{})
	if m.errorMessage != "" {
		t.Errorf("error = %q, want cleared", m.errorMessage)
	}
}

func TestQuit(t *testing.T) {
	m := started(t, Options{}, StartupMsg{})
	_, cmd := applyUpdate(m, key(KeyQuit))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	found := false
	for _, msg := range collect(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			found = true
		}
	}
	if !found {
		t.Error("q should quit")
	}
}

func TestOrpIndex(t *testing.T) {
	cases := map[string]int{
		"a":               0,
		"Hello":           1,
		"reading":         2,
		"comprehension":   3,
		"extraordinarily": 4,
	}
	for word, want := range cases {
		if got := orpIndex(word); got != want {
			t.Errorf("orpIndex(%q) = %d, want %d", word, got, want)
		}
	}
}

func TestRenderWordAlignsPivot(t *testing.T) {
	st := settings.Default()
	st.FontSize = settings.MinFontSize

	line := renderWord("Hello", st, false)
	if i := strings.Index(line, "Hello"); i != pivotColumn-1 {
		t.Errorf("Hello starts at %d, want %d so e sits at the pivot", i, pivotColumn-1)
	}

	st.FontSize = settings.MaxFontSize
	if line := renderWord("ab", st, false); !strings.Contains(line, "a  b") {
		t.Errorf("large font line = %q, want spaced letters", line)
	}
}

func TestFormatRemaining(t *testing.T) {
	if got := formatRemaining(0); got != "0:00 left" {
		t.Errorf("formatRemaining(0) = %q", got)
	}
	if got := formatRemaining(83_400_000_000); got != "1:23 left" {
		t.Errorf("formatRemaining(83.4s) = %q", got)
	}
}

func TestViewRendersWithSize(t *testing.T) {
	m := started(t, Options{Text: "Hello world."}, StartupMsg{})

	view := m.View()
	if view == "Initializing..." {
		t.Fatal("view should not show initializing with size set")
	}
	for _, want := range []string{"TOUCHREAD", "1 / 2", "300 wpm"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := New(Options{})
	view := m.View()
	if view != "Initializing..." {
		t.Errorf("view without size = %q, want 'Initializing...'", view)
	}
}

// collect runs cmd, unpacking batches, and returns every message produced.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}
