package pacing

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Tokenize splits text on runs of whitespace and drops empty tokens.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// CountWords returns the number of tokens Tokenize would produce.
func CountWords(text string) int {
	return len(Tokenize(text))
}

// Segment converts text into a Sequence paced at wpm. Whitespace-only text
// yields an empty Sequence.
func Segment(text string, wpm int, punctuationSensitive bool) Sequence {
	tokens := Tokenize(text)
	base := BaseDelay(wpm)

	seq := make(Sequence, 0, len(tokens))
	for _, tok := range tokens {
		ms := base
		if punctuationSensitive {
			ms *= multiplier(tok)
		}
		seq = append(seq, Word{Text: tok, Delay: roundMillis(ms)})
	}
	return seq
}

// multiplier compounds the punctuation and length factors for tok. Every
// check looks at the original token.
func multiplier(tok string) float64 {
	m := 1.0

	last, _ := utf8.DecodeLastRuneInString(tok)
	switch last {
	case '.', '!', '?':
		m *= SentenceEndDelay
	case ',', ';', ':':
		m *= CommaDelay
	}

	n := utf8.RuneCountInString(tok)
	if n > VeryLongWordThreshold {
		m *= VeryLongWordDelay
	} else if n > LongWordThreshold {
		m *= LongWordDelay
	}

	if n <= ShortWordThreshold {
		m *= ShortWordDelay
	}
	return m
}

func roundMillis(ms float64) time.Duration {
	r := int64(math.Round(ms))
	if r < 1 {
		r = 1
	}
	return time.Duration(r) * time.Millisecond
}

// Text joins the words with single spaces. Segmenting the result again
// reproduces the same tokens.
func (s Sequence) Text() string {
	var b strings.Builder
	for i, w := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
	}
	return b.String()
}

// Resegment recomputes every delay for a new speed or punctuation setting.
// Length and word texts are unchanged.
func (s Sequence) Resegment(wpm int, punctuationSensitive bool) Sequence {
	return Segment(s.Text(), wpm, punctuationSensitive)
}

// Duration is the time needed to show the whole sequence.
func (s Sequence) Duration() time.Duration {
	return s.Remaining(0)
}

// Remaining is the time needed to show the words from index to the end.
func (s Sequence) Remaining(index int) time.Duration {
	var d time.Duration
	for i := max(0, index); i < len(s); i++ {
		d += s[i].Delay
	}
	return d
}
