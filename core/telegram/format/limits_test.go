package format

import (
	"strings"
	"testing"
)

func TestTextLength(t *testing.T) {
	cases := map[string]int{
		"":          0,
		"abc":       3,
		"Привет":    6,
		"📡":         2,
		`a\.b`:      4,
		"ℹ️ Проект": 9,
	}
	for s, want := range cases {
		if got := TextLength(s); got != want {
			t.Fatalf("TextLength(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestFitsMessage(t *testing.T) {
	if !FitsMessage(strings.Repeat("я", MaxMessageLength)) {
		t.Fatal("text at the limit must fit")
	}
	if FitsMessage(strings.Repeat("я", MaxMessageLength+1)) {
		t.Fatal("text over the limit must not fit")
	}
	if FitsMessage(strings.Repeat("😀", MaxMessageLength/2+1)) {
		t.Fatal("surrogate pairs count twice")
	}
}
