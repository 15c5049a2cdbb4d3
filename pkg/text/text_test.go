package text

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "no markers", input: "just a book", want: []string{"just a book"}},
		{name: "three parts", input: "A<<m>>B<<n>>C", want: []string{"A", "B", "C"}},
		{name: "leading and trailing markers", input: "<<a>>mid<<b>>", want: []string{"", "mid", ""}},
		{name: "multiline marker", input: "one<<line\nbreak>>two", want: []string{"one", "two"}},
		{name: "non greedy", input: "x<<a>>y>>z", want: []string{"x", "y>>z"}},
		{name: "empty input", input: "", want: []string{""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Split(tc.input)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("Split(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplit_ResplittingSegmentIsStable(t *testing.T) {
	for _, seg := range Split("Chapter<<I>>It was a dark night.<<II>>Morning came.") {
		again := Split(seg)
		if len(again) != 1 || again[0] != seg {
			t.Fatalf("Split(%q) = %q, want the segment itself", seg, again)
		}
	}
}

func TestSelect_ClampsIndex(t *testing.T) {
	segments := []string{"a", "b", "c"}
	tests := []struct {
		index int
		want  string
	}{
		{index: 0, want: "a"},
		{index: 2, want: "c"},
		{index: 3, want: "c"},
		{index: 100, want: "c"},
		{index: -1, want: "a"},
	}
	for _, tc := range tests {
		if got := Select(segments, tc.index); got != tc.want {
			t.Fatalf("Select(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
	if got := Select(nil, 3); got != "" {
		t.Fatalf("Select(nil) = %q, want empty", got)
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("x", MaxExcerptChars+500)
	if got := Excerpt(long, MaxExcerptChars); len(got) != MaxExcerptChars {
		t.Fatalf("Excerpt() length = %d, want %d", len(got), MaxExcerptChars)
	}

	if got := Excerpt("  \n short text \t", MaxExcerptChars); got != "short text" {
		t.Fatalf("Excerpt() = %q, want trimmed text", got)
	}

	multibyte := strings.Repeat("é", MaxExcerptChars+1)
	got := Excerpt(multibyte, MaxExcerptChars)
	if n := utf8.RuneCountInString(got); n != MaxExcerptChars {
		t.Fatalf("Excerpt() rune count = %d, want %d", n, MaxExcerptChars)
	}

	if got := Excerpt("   ", MaxExcerptChars); got != "" {
		t.Fatalf("Excerpt() = %q, want empty", got)
	}
}

func TestExcerpt_TrimsBeforeTruncating(t *testing.T) {
	input := strings.Repeat(" ", 10) + strings.Repeat("y", MaxExcerptChars)
	got := Excerpt(input, MaxExcerptChars)
	if got != strings.Repeat("y", MaxExcerptChars) {
		t.Fatalf("Excerpt() did not trim before truncating")
	}
}
