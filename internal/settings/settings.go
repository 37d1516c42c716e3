// Package settings holds the reader preferences shared by the UI, the
// headless server and the store.
package settings

import "github.com/jwulff/touchread/internal/pacing"

// Font size bounds, in points.
const (
	DefaultFontSize = 60
	MinFontSize     = 24
	MaxFontSize     = 120
	FontSizeStep    = 4
)

// Settings is the reader preference record. Only WPM and
// PunctuationSensitive affect pacing; the rest are presentation flags.
type Settings struct {
	WPM                  int  `yaml:"wpm" json:"wpm"`
	FontSize             int  `yaml:"font_size" json:"fontSize"`
	PunctuationSensitive bool `yaml:"punctuation_sensitive" json:"punctuationSensitive"`
	ShowORP              bool `yaml:"show_orp" json:"showORP"`
	UseAnimation         bool `yaml:"use_animation" json:"useAnimation"`
	ShowProgress         bool `yaml:"show_progress" json:"showProgress"`
}

// Default returns the out-of-the-box preferences.
func Default() Settings {
	return Settings{
		WPM:                  pacing.DefaultWPM,
		FontSize:             DefaultFontSize,
		PunctuationSensitive: true,
		ShowORP:              true,
		UseAnimation:         true,
		ShowProgress:         true,
	}
}

// Normalize clamps WPM and FontSize into range and onto their steps.
func (s Settings) Normalize() Settings {
	s.WPM = pacing.ClampWPM(s.WPM)
	s.FontSize = clampFont(s.FontSize)
	return s
}

// Faster raises WPM by one step.
func (s Settings) Faster() Settings {
	s.WPM = pacing.ClampWPM(s.WPM + pacing.WPMStep)
	return s
}

// Slower lowers WPM by one step.
func (s Settings) Slower() Settings {
	s.WPM = pacing.ClampWPM(s.WPM - pacing.WPMStep)
	return s
}

// Larger raises FontSize by one step.
func (s Settings) Larger() Settings {
	s.FontSize = clampFont(s.FontSize + FontSizeStep)
	return s
}

// Smaller lowers FontSize by one step.
func (s Settings) Smaller() Settings {
	s.FontSize = clampFont(s.FontSize - FontSizeStep)
	return s
}

func clampFont(size int) int {
	if size <= MinFontSize {
		return MinFontSize
	}
	if size >= MaxFontSize {
		return MaxFontSize
	}
	n := (size - MinFontSize + FontSizeStep/2) / FontSizeStep
	return min(MaxFontSize, MinFontSize+n*FontSizeStep)
}
