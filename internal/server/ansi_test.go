package server

import (
	"strings"
	"testing"
)

func TestStyleWrapsAndResets(t *testing.T) {
	got := Style("hi", AnsiBold, AnsiCyan)
	if !strings.HasPrefix(got, AnsiBold+AnsiCyan) || !strings.HasSuffix(got, AnsiReset) {
		t.Fatalf("Style() = %q", got)
	}
	if Style("plain") != "plain" {
		t.Fatalf("Style with no attributes altered the text")
	}
}

func TestAnsiAppendsMissingReset(t *testing.T) {
	styled := AnsiYellow + "warning"
	if got := Ansi(styled); !strings.HasSuffix(got, AnsiReset) {
		t.Fatalf("Ansi() = %q, missing reset", got)
	}
	if got := Ansi("plain"); got != "plain" {
		t.Fatalf("Ansi() touched unstyled text: %q", got)
	}
}

func TestHighlightNameTitleCases(t *testing.T) {
	if got := HighlightName("bob the builder"); !strings.Contains(got, "Bob The Builder") {
		t.Fatalf("HighlightName() = %q", got)
	}
}

func TestTrimStripsCarriageReturns(t *testing.T) {
	if got := Trim("  look\r\n"); got != "look" {
		t.Fatalf("Trim() = %q", got)
	}
}
