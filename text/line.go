package text

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// HighlightMarker is the reserved prefix that marks a line for highlighting.
const HighlightMarker = "PIME_MSG|"

// Terminator is the canonical line ending used when a line is rendered.
const Terminator = "\r\n"

// Category is the display class of a line.
type Category int

const (
	Normal Category = iota
	Highlighted
)

func (c Category) String() string {
	switch c {
	case Highlighted:
		return "highlighted"
	default:
		return "normal"
	}
}

// Line is one complete line from the pipe, without its terminator.
// Text holds the bytes exactly as received and may not be valid UTF-8.
type Line struct {
	Text     string
	Category Category
}

// NewLine creates a Line from raw text, classifying it.
func NewLine(raw string) Line {
	return Line{Text: raw, Category: Classify(raw)}
}

// Classify reports Highlighted only for an exact, case-sensitive marker prefix.
func Classify(line string) Category {
	if strings.HasPrefix(line, HighlightMarker) {
		return Highlighted
	}
	return Normal
}

// Body returns the text with the highlight marker removed.
func (l Line) Body() string {
	if l.Category == Highlighted {
		return strings.TrimPrefix(l.Text, HighlightMarker)
	}
	return l.Text
}

// Rendered returns the text followed by the canonical terminator.
func (l Line) Rendered() string {
	return l.Text + Terminator
}

// Decode converts raw pipe text to valid UTF-8, replacing invalid sequences
// with U+FFFD. A fresh decoder is used per call so it can run on any goroutine.
func Decode(raw string) string {
	out, err := unicode.UTF8.NewDecoder().String(raw)
	if err != nil {
		return strings.ToValidUTF8(raw, "�")
	}
	return out
}
