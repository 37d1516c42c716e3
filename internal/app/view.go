package app

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/touchread/internal/playback"
	"github.com/jwulff/touchread/internal/settings"
	"github.com/jwulff/touchread/internal/ui"
)

// pivotColumn is where the focus letter lands inside the word frame.
const pivotColumn = 12

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	bodyH := max(8, m.height-6)
	var body string
	switch m.overlay {
	case overlayHelp:
		body = m.renderHelp()
	case overlaySettings:
		body = m.renderSettings()
	case overlayLoad:
		body = m.renderLoadMenu()
	default:
		body = m.renderReader()
	}
	sections = append(sections, lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, body))

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("TOUCHREAD")

	var dot string
	switch {
	case m.snap.Rewinding:
		dot = ui.RewindDotStyle.Render("◀◀ REWIND")
	case m.snap.Running:
		dot = ui.RunningDotStyle.Render("● READING")
	case m.snap.Finished:
		dot = ui.IdleDotStyle.Render("■ DONE")
	default:
		dot = ui.IdleDotStyle.Render("○ PAUSED")
	}

	pace := fmt.Sprintf("%d wpm", m.settings.WPM)
	if !m.settings.PunctuationSensitive {
		pace += " · flat"
	}

	status := ""
	if m.statusText != "" {
		status = "  " + ui.StatusStyle.Render(m.statusText)
	}
	return title + "  " + dot + "  " + ui.DimStyle.Render(pace) + status
}

func (m Model) renderReader() string {
	if m.snap.State == playback.StateEmpty || m.snap.Length == 0 {
		hint := "Nothing to read. Press l to load text."
		if !m.started {
			hint = "Loading..."
		}
		return ui.DimStyle.Render(hint)
	}

	frame := ui.WordFrameStyle
	if m.settings.UseAnimation && (m.snap.Running || m.snap.Rewinding) {
		frame = ui.WordFrameActiveStyle
	}
	word := frame.Render(renderWord(m.snap.Word, m.settings, m.snap.Finished))

	lines := []string{word, ""}
	lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("%d / %d", m.snap.Index+1, m.snap.Length)))

	if m.settings.ShowProgress {
		barW := max(10, min(60, m.width-24))
		lines = append(lines, renderProgressBar(m.snap.Index, m.snap.Length, m.snap.Finished, barW)+
			"  "+ui.DimStyle.Render(formatRemaining(m.snap.Remaining)))
	}

	if m.snap.Finished {
		lines = append(lines, "", ui.DimStyle.Render("Finished. Press r to read again."))
	} else if m.snap.Index == 0 && !m.snap.Running {
		lines = append(lines, "", ui.DimStyle.Render("Hold the left mouse button or press Space to read."))
	}

	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

// renderWord lays the word out so its focus letter sits at pivotColumn.
func renderWord(word string, st settings.Settings, finished bool) string {
	style := ui.WordStyle
	if finished {
		style = ui.FinishedWordStyle
	}
	gap := strings.Repeat(" ", letterSpacing(st.FontSize))
	runes := []rune(word)
	width := pivotColumn * 2 * (len(gap) + 1)

	if !st.ShowORP || len(runes) == 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(spaced(runes, gap)))
	}

	p := orpIndex(word)
	left := spaced(runes[:p], gap)
	right := spaced(runes[p+1:], gap)
	if left != "" {
		left += gap
	}
	if right != "" {
		right = gap + right
	}

	pad := max(0, pivotColumn*(len(gap)+1)-lipgloss.Width(left))
	line := strings.Repeat(" ", pad) + style.Render(left) + ui.PivotStyle.Render(string(runes[p])) + style.Render(right)
	return padRight(line, width)
}

// orpIndex is the rune offset of the optimal recognition point.
func orpIndex(word string) int {
	n := utf8.RuneCountInString(word)
	switch {
	case n <= 1:
		return 0
	case n <= 5:
		return 1
	case n <= 9:
		return 2
	case n <= 13:
		return 3
	default:
		return 4
	}
}

// letterSpacing maps a font size onto blank columns between letters.
func letterSpacing(fontSize int) int {
	return max(0, (fontSize-settings.MinFontSize)/48)
}

func spaced(runes []rune, gap string) string {
	if gap == "" {
		return string(runes)
	}
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, gap)
}

func renderProgressBar(index, length int, finished bool, width int) string {
	frac := 0.0
	if length > 0 {
		frac = float64(index+1) / float64(length)
	}
	if finished {
		frac = 1
	}
	filled := min(width, int(frac*float64(width)))
	bar := ui.ProgressFilledStyle.Render(strings.Repeat("█", filled)) +
		ui.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
	return bar + ui.DimStyle.Render(fmt.Sprintf(" %3.0f%%", frac*100))
}

func formatRemaining(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d left", secs/60, secs%60)
}

func (m Model) renderHelp() string {
	lines := []string{ui.PanelTitleStyle.Render("SHORTCUTS"), ""}
	for _, s := range shortcuts {
		lines = append(lines, padRight(ui.FooterKeyStyle.Render(s.Key), 18)+ui.FooterDescStyle.Render(s.Desc))
	}
	lines = append(lines, "", ui.DimStyle.Render("Esc or k to close"))
	return ui.PanelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderSettings() string {
	lines := []string{ui.PanelTitleStyle.Render("SETTINGS"), ""}
	for i, row := range settingsRows {
		label := padRight(row.label, 20)
		value := row.value(m.settings)
		if i == m.cursor {
			lines = append(lines, ui.SelectedStyle.Render("> "+label+"‹ "+value+" ›"))
		} else {
			lines = append(lines, "  "+label+"  "+value)
		}
	}
	lines = append(lines, "", ui.DimStyle.Render("↑↓ select  ←→ change  Esc close"))
	return ui.PanelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderLoadMenu() string {
	lines := []string{ui.PanelTitleStyle.Render("LOAD TEXT"), ""}
	for i, item := range loadItems() {
		if i == m.cursor {
			lines = append(lines, ui.SelectedStyle.Render("> "+item.title))
		} else {
			lines = append(lines, "  "+item.title)
		}
	}
	lines = append(lines, "", ui.DimStyle.Render("↑↓ select  Enter load  Esc close"))
	return ui.PanelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	if m.overlay == overlayNone && m.snap.Length > 0 {
		if m.snap.Running {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Pause"))
		} else {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Read"))
		}
		parts = append(parts, ui.FooterKeyStyle.Render("←→")+ui.FooterDescStyle.Render(" Step"))
		parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Restart"))
		parts = append(parts, ui.FooterKeyStyle.Render("+-")+ui.FooterDescStyle.Render(" Speed"))
	}

	parts = append(parts, ui.FooterKeyStyle.Render("l")+ui.FooterDescStyle.Render(" Load"))
	parts = append(parts, ui.FooterKeyStyle.Render("s")+ui.FooterDescStyle.Render(" Settings"))
	parts = append(parts, ui.FooterKeyStyle.Render("k")+ui.FooterDescStyle.Render(" Help"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
