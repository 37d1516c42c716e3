package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwulff/touchread/internal/playback"
	"github.com/jwulff/touchread/internal/progress"
	"github.com/jwulff/touchread/internal/settings"
	"github.com/jwulff/touchread/internal/source"

	tea "github.com/charmbracelet/bubbletea"
)

// Store is where the reader keeps its settings and current reading.
type Store interface {
	progress.Store
	LoadSettings(ctx context.Context) (*settings.Settings, error)
	SaveSettings(ctx context.Context, st settings.Settings) error
}

// Options configures New. The zero value is a reader that persists nothing.
type Options struct {
	Store Store
	// Queue serializes writes to Store. Without one, writes run inline.
	Queue *progress.Queue
	// Text, when not blank, is read instead of resuming the saved reading.
	Text         string
	Defaults     settings.Settings
	RewindPeriod time.Duration
	Logger       *slog.Logger
}

// overlay is the panel drawn over the word, if any.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlaySettings
	overlayLoad
)

// engine is shared by every copy of Model. The machine reports into it
// synchronously and Update drains it after each message.
type engine struct {
	pending []tea.Cmd
	snap    playback.Snapshot
	changed bool
}

// Schedule turns a playback timer into a tea.Tick.
func (e *engine) Schedule(t playback.Timer) {
	e.pending = append(e.pending, tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return TickMsg{Timer: t}
	}))
}

func (e *engine) observe(s playback.Snapshot) {
	e.snap = s
	e.changed = true
}

// Model is the root bubbletea model for the touchread TUI.
type Model struct {
	machine *playback.Machine
	eng     *engine
	snap    playback.Snapshot

	// Persistence
	store  Store
	queue  *progress.Queue
	bridge *progress.Bridge
	log    *slog.Logger

	settings settings.Settings
	text     string
	started  bool

	// UI state
	overlay overlay
	cursor  int
	width   int
	height  int

	// Errors
	errorMessage   string
	errorTransient bool

	statusText string
}

// New creates a reader. Nothing is shown until Init's startup message has
// been handled.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	st := opts.Defaults
	if st.WPM == 0 {
		st = settings.Default()
	}
	st = st.Normalize()

	eng := &engine{}
	machineOpts := []playback.Option{
		playback.WithObserver(eng.observe),
		playback.WithSettings(st.WPM, st.PunctuationSensitive),
		playback.WithLogger(log.With("component", "playback")),
	}
	if opts.RewindPeriod > 0 {
		machineOpts = append(machineOpts, playback.WithRewindPeriod(opts.RewindPeriod))
	}
	machine := playback.New(eng, machineOpts...)

	m := Model{
		machine:    machine,
		eng:        eng,
		snap:       machine.Snapshot(),
		store:      opts.Store,
		queue:      opts.Queue,
		log:        log,
		settings:   st,
		text:       opts.Text,
		statusText: "Loading...",
	}
	if opts.Store != nil {
		m.bridge = progress.NewBridge(opts.Store, nil)
	}
	return m
}

// Init loads whatever the previous run persisted.
func (m Model) Init() tea.Cmd {
	return startupCmd(m.store)
}

func startupCmd(store Store) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return StartupMsg{}
		}
		ctx := context.Background()
		st, err := store.LoadSettings(ctx)
		if err != nil {
			return StartupMsg{Err: err}
		}
		reading, err := store.LoadReadingState(ctx)
		if err != nil {
			return StartupMsg{Settings: st, Err: err}
		}
		return StartupMsg{Settings: st, Reading: reading}
	}
}

// clipboardCmd reads the system clipboard off the update loop.
func clipboardCmd() tea.Cmd {
	return func() tea.Msg {
		text, err := source.Clipboard()
		return TextLoadedMsg{Text: text, Source: "clipboard", Err: err}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.machine.Fire(msg.Timer)

	case StartupMsg:
		cmd = m.handleStartup(msg)

	case TextLoadedMsg:
		cmd = m.handleTextLoaded(msg)

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
	}

	flushed := m.flush()
	return m, tea.Batch(cmd, flushed)
}

// flush collects armed timers and records the latest snapshot.
func (m *Model) flush() tea.Cmd {
	cmds := m.eng.pending
	m.eng.pending = nil

	if m.eng.changed {
		m.eng.changed = false
		m.snap = m.eng.snap
		if m.bridge != nil {
			if st, ok := m.bridge.Mark(m.snap.Index, m.snap.Length); ok {
				bridge := m.bridge
				if cmd := m.persist(func(ctx context.Context) error { return bridge.Save(ctx, st) }); cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		}
	}
	return tea.Batch(cmds...)
}

// persist hands job to the queue, or runs it now when there is none.
func (m *Model) persist(job progress.Job) tea.Cmd {
	if m.queue != nil {
		m.queue.Enqueue(job)
		return nil
	}
	if err := job(context.Background()); err != nil {
		m.log.Warn("persist", "error", err)
		return m.showError(err.Error(), true)
	}
	return nil
}

func (m *Model) showError(text string, transient bool) tea.Cmd {
	m.errorMessage = text
	m.errorTransient = transient
	if transient {
		return clearTransientErrorCmd()
	}
	return nil
}

func (m *Model) handleStartup(msg StartupMsg) tea.Cmd {
	m.started = true

	var cmd tea.Cmd
	if msg.Err != nil {
		m.log.Warn("load saved state", "error", msg.Err)
		cmd = m.showError(fmt.Sprintf("load saved state: %v", msg.Err), true)
	}
	if msg.Settings != nil {
		m.applySettings(*msg.Settings, false)
	}

	text := strings.TrimSpace(m.text)
	m.text = ""
	switch {
	case text != "":
		m.startReading(text)
		m.statusText = "Ready"
	case m.resume(msg.Reading):
		m.statusText = fmt.Sprintf("Resumed at %.0f%%", msg.Reading.Progress)
	default:
		m.startReading(source.DefaultText)
		m.statusText = "Ready"
	}
	return cmd
}

func (m *Model) resume(st *progress.ReadingState) bool {
	if st == nil || m.bridge == nil {
		return false
	}
	content, index, ok := m.bridge.Adopt(*st)
	if !ok {
		return false
	}
	m.machine.Restore(content, index)
	return true
}

func (m *Model) handleTextLoaded(msg TextLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		return m.showError(msg.Err.Error(), true)
	}
	text, err := source.Submit(msg.Text)
	if err != nil {
		return m.showError(fmt.Sprintf("%s: %v", msg.Source, err), true)
	}
	m.overlay = overlayNone
	m.startReading(text)
	m.statusText = "Loaded " + msg.Source
	return nil
}

// startReading replaces the current text and starts tracking it.
func (m *Model) startReading(text string) {
	if m.bridge != nil {
		m.bridge.Begin(text)
	}
	m.machine.Load(text)
}

// clear drops the text and the saved reading.
func (m *Model) clear() tea.Cmd {
	var cmd tea.Cmd
	if m.bridge != nil {
		m.bridge.Reset()
		cmd = m.persist(m.bridge.Clear)
	}
	m.machine.Clear()
	m.statusText = "Cleared"
	return cmd
}

// applySettings normalizes st, hands the pacing fields to the machine and
// optionally persists the result.
func (m *Model) applySettings(st settings.Settings, save bool) tea.Cmd {
	st = st.Normalize()
	if st == m.settings {
		return nil
	}
	m.settings = st
	m.machine.SetSettings(st.WPM, st.PunctuationSensitive)
	if !save || m.store == nil {
		return nil
	}
	store := m.store
	return m.persist(func(ctx context.Context) error { return store.SaveSettings(ctx, st) })
}

// handleMouse maps press and hold onto reading and rewinding.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.overlay != overlayNone {
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.machine.Play()
		case tea.MouseButtonRight:
			m.machine.RewindStart()
		}
	case tea.MouseActionRelease:
		m.machine.RewindStop()
		m.machine.Pause()
	}
}

// handleKey processes key presses.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return tea.Quit
	}

	if m.overlay != overlayNone {
		return m.handleOverlayKey(key)
	}

	switch key {
	case KeySpace:
		m.machine.Toggle()
	case KeyLeft:
		m.machine.StepBackward()
	case KeyRight:
		m.machine.StepForward()
	case KeyRestart:
		m.machine.Restart()
	case KeyRewind:
		if m.machine.Rewinding() {
			m.machine.RewindStop()
		} else {
			m.machine.RewindStart()
		}
	case KeyFaster, KeyFasterAlt:
		return m.applySettings(m.settings.Faster(), true)
	case KeySlower:
		return m.applySettings(m.settings.Slower(), true)
	case KeyPunctuation:
		st := m.settings
		st.PunctuationSensitive = !st.PunctuationSensitive
		return m.applySettings(st, true)
	case KeyProgress:
		st := m.settings
		st.ShowProgress = !st.ShowProgress
		return m.applySettings(st, true)
	case KeyEsc:
		return m.clear()
	case KeySettings:
		m.openOverlay(overlaySettings)
	case KeyHelp:
		m.openOverlay(overlayHelp)
	case KeyLoad:
		m.openOverlay(overlayLoad)
	}
	return nil
}

func (m *Model) openOverlay(o overlay) {
	// Keep the reader from running on under a panel.
	m.machine.RewindStop()
	m.machine.Pause()
	m.overlay = o
	m.cursor = 0
}

func (m *Model) handleOverlayKey(key string) tea.Cmd {
	if key == KeyEsc {
		m.overlay = overlayNone
		return nil
	}

	switch m.overlay {
	case overlayHelp:
		if key == KeyHelp {
			m.overlay = overlayNone
		}

	case overlaySettings:
		switch key {
		case KeySettings:
			m.overlay = overlayNone
		case KeyUp:
			m.cursor = (m.cursor + len(settingsRows) - 1) % len(settingsRows)
		case KeyDown:
			m.cursor = (m.cursor + 1) % len(settingsRows)
		case KeyRight, KeyFaster, KeyFasterAlt, KeyEnter, KeySpace:
			return m.applySettings(settingsRows[m.cursor].next(m.settings), true)
		case KeyLeft, KeySlower:
			return m.applySettings(settingsRows[m.cursor].prev(m.settings), true)
		}

	case overlayLoad:
		items := loadItems()
		switch key {
		case KeyLoad:
			m.overlay = overlayNone
		case KeyUp:
			m.cursor = (m.cursor + len(items) - 1) % len(items)
		case KeyDown:
			m.cursor = (m.cursor + 1) % len(items)
		case KeyEnter:
			item := items[m.cursor]
			if item.clipboard {
				return clipboardCmd()
			}
			return m.handleTextLoaded(TextLoadedMsg{Text: item.text, Source: item.title})
		}
	}
	return nil
}

// settingsRow is one adjustable line of the settings panel.
type settingsRow struct {
	label string
	value func(settings.Settings) string
	next  func(settings.Settings) settings.Settings
	prev  func(settings.Settings) settings.Settings
}

func toggleRow(label string, field func(*settings.Settings) *bool) settingsRow {
	flip := func(st settings.Settings) settings.Settings {
		p := field(&st)
		*p = !*p
		return st
	}
	return settingsRow{
		label: label,
		value: func(st settings.Settings) string { return onOff(*field(&st)) },
		next:  flip,
		prev:  flip,
	}
}

var settingsRows = []settingsRow{
	{
		label: "Speed",
		value: func(st settings.Settings) string { return fmt.Sprintf("%d wpm", st.WPM) },
		next:  settings.Settings.Faster,
		prev:  settings.Settings.Slower,
	},
	{
		label: "Font size",
		value: func(st settings.Settings) string { return fmt.Sprintf("%d pt", st.FontSize) },
		next:  settings.Settings.Larger,
		prev:  settings.Settings.Smaller,
	},
	toggleRow("Punctuation pauses", func(st *settings.Settings) *bool { return &st.PunctuationSensitive }),
	toggleRow("Focus letter", func(st *settings.Settings) *bool { return &st.ShowORP }),
	toggleRow("Animation", func(st *settings.Settings) *bool { return &st.UseAnimation }),
	toggleRow("Progress bar", func(st *settings.Settings) *bool { return &st.ShowProgress }),
}

// loadItem is one entry of the load menu.
type loadItem struct {
	title     string
	text      string
	clipboard bool
}

func loadItems() []loadItem {
	items := []loadItem{{title: "Paste from clipboard", clipboard: true}}
	for _, s := range source.Samples() {
		items = append(items, loadItem{title: s.Title, text: s.Text})
	}
	return append(items, loadItem{title: "Welcome text", text: source.DefaultText})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
