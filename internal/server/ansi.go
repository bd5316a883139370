package server

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	AnsiReset   = "\x1b[0m"
	AnsiBold    = "\x1b[1m"
	AnsiDim     = "\x1b[2m"
	AnsiCyan    = "\x1b[36m"
	AnsiYellow  = "\x1b[33m"
	AnsiGreen   = "\x1b[32m"
	AnsiMagenta = "\x1b[35m"
)

// Style wraps text with the provided ANSI attributes.
func Style(text string, attrs ...string) string {
	if len(attrs) == 0 {
		return text
	}
	return strings.Join(attrs, "") + text + AnsiReset
}

// HighlightName formats persona names consistently: title-cased, bold cyan.
// Casers keep internal state, so one is built per call.
func HighlightName(name string) string {
	return Style(cases.Title(language.English).String(name), AnsiBold, AnsiCyan)
}

// Trim normalises a telnet input line.
func Trim(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))
}

// Ansi ensures output strings end with a reset sequence.
func Ansi(c string) string {
	if strings.Contains(c, "\x1b[") && !strings.HasSuffix(c, AnsiReset) {
		return c + AnsiReset
	}
	return c
}

// Prompt renders the standard input prompt.
func Prompt() string {
	return Ansi(Style("\r\n> ", AnsiBold, AnsiYellow))
}
