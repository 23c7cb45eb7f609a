package engine

import (
	"github.com/derKlinke/buergeramt/pkg/state"
)

// Style tells the UI how to render a line.
type Style string

const (
	StyleBureaucrat Style = "bureaucrat"
	StyleSuccess    Style = "success"
	StyleFailure    Style = "failure"
	StyleHint       Style = "hint"
	StyleInfo       Style = "info"
	StyleItalic     Style = "italic"
	StyleTitle      Style = "title"
	StyleNormal     Style = "normal"
)

// Line is one piece of output. Speaker is set for lines spoken by an
// official.
type Line struct {
	Style   Style  `json:"style"`
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

// Turn is the result of processing one player input.
type Turn struct {
	Lines   []Line        `json:"lines"`
	Won     bool          `json:"won"`
	Quit    bool          `json:"quit"`
	Outcome state.Outcome `json:"outcome"`
}

func (t *Turn) add(style Style, text string) {
	t.Lines = append(t.Lines, Line{Style: style, Text: text})
}

func (t *Turn) say(speaker, text string) {
	t.Lines = append(t.Lines, Line{Style: StyleBureaucrat, Speaker: speaker, Text: text})
}

func (t *Turn) append(lines ...Line) {
	t.Lines = append(t.Lines, lines...)
}

// Texts returns the text of every line, mostly for tests and the plain
// console.
func (t *Turn) Texts() []string {
	texts := make([]string, len(t.Lines))
	for i, l := range t.Lines {
		texts[i] = l.Text
	}
	return texts
}
