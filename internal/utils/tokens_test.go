package utils_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/callpulse/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"cyrillic", strings.Repeat("ж", 400), 100},
		{"long", strings.Repeat("a", 4000), 900},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	in := strings.Repeat("я", 400)
	out, cut := utils.TruncateRunes(in, 200, "...")
	if !cut {
		t.Fatalf("expected truncation")
	}
	if n := utf8.RuneCountInString(out); n != 203 {
		t.Fatalf("rune length = %d, want 203", n)
	}
	if !strings.HasPrefix(out, strings.Repeat("я", 200)) || !strings.HasSuffix(out, "...") {
		t.Fatalf("unexpected truncation result: %q", out)
	}

	short, cut := utils.TruncateRunes("short", 200, "...")
	if cut || short != "short" {
		t.Fatalf("short input must pass through, got %q cut=%v", short, cut)
	}
}
