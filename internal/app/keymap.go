package app

// Key binding constants used in handleKey.
const (
	KeyQuit        = "q"
	KeyQuitUpper   = "Q"
	KeyCtrlC       = "ctrl+c"
	KeySpace       = " "
	KeyLeft        = "left"
	KeyRight       = "right"
	KeyUp          = "up"
	KeyDown        = "down"
	KeyEnter       = "enter"
	KeyEsc         = "esc"
	KeyRestart     = "r"
	KeyRewind      = "b"
	KeyFaster      = "+"
	KeyFasterAlt   = "="
	KeySlower      = "-"
	KeyPunctuation = "p"
	KeyProgress    = "t"
	KeySettings    = "s"
	KeyHelp        = "k"
	KeyLoad        = "l"
)

// shortcut is one line of the help overlay.
type shortcut struct {
	Key  string
	Desc string
}

var shortcuts = []shortcut{
	{"hold left click", "read while held"},
	{"hold right click", "rewind while held"},
	{"Space", "play / pause"},
	{"← →", "previous / next word"},
	{"r", "restart"},
	{"b", "rewind on / off"},
	{"+ -", "faster / slower"},
	{"p", "punctuation pauses"},
	{"t", "progress bar"},
	{"s", "settings"},
	{"l", "load text"},
	{"Esc", "clear text"},
	{"k", "this help"},
	{"q", "quit"},
}
