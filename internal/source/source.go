// Package source produces the raw text handed to the reader. Every source is
// treated the same once it yields a string.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// MaxTextSize bounds how much text a file or reader may supply.
const MaxTextSize = 8 << 20

// ErrEmpty is returned when a source yields only whitespace.
var ErrEmpty = errors.New("no text to read")

// Submit trims text and rejects blank input.
func Submit(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Clipboard reads the system clipboard.
func Clipboard() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return Submit(text)
}

// File reads path as raw text. No format is interpreted.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	text, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return text, nil
}

// Reader reads at most MaxTextSize bytes from r.
func Reader(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxTextSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxTextSize {
		return "", fmt.Errorf("text larger than %d bytes", MaxTextSize)
	}
	return Submit(string(data))
}
