package pdfaf

import (
	"strings"
	"testing"
)

func TestNeedsOCRFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "empty page",
			text: "",
			want: true,
		},
		{
			name: "whitespace only",
			text: "   \n\n  \t ",
			want: true,
		},
		{
			name: "short fragment",
			text: "Page 3",
			want: true,
		},
		{
			name: "healthy paragraph",
			text: strings.Repeat("The quick brown fox jumps over the lazy dog. ", 2),
			want: false,
		},
		{
			name: "broken extraction spacing",
			text: strings.Repeat("w o r d broken ", 8),
			want: true,
		},
		{
			name: "list markers do not count as garbled",
			text: "Chapter x . Section v : Part X - intro . end v : more x . done - fine x . yes v : good X - ok",
			want: false,
		},
		{
			name: "replacement characters",
			text: strings.Repeat("legible words here ", 5) + strings.Repeat("�", 8),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsOCRFallback(tt.text, DefaultOCRMinContent); got != tt.want {
				t.Errorf("NeedsOCRFallback(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHasGarbledWords(t *testing.T) {
	short := "a b c d e"
	if hasGarbledWords(short) {
		t.Errorf("hasGarbledWords(%q) = true, want false for under 20 words", short)
	}

	garbled := strings.Repeat("a b c d normal ", 5)
	if !hasGarbledWords(garbled) {
		t.Errorf("hasGarbledWords(%q) = false, want true", garbled)
	}
}

func TestReplacementCharRatio(t *testing.T) {
	if got := replacementCharRatio(""); got != 0 {
		t.Errorf("replacementCharRatio(\"\") = %v, want 0", got)
	}
	if got := replacementCharRatio("ab��"); got != 0.5 {
		t.Errorf("replacementCharRatio() = %v, want 0.5", got)
	}
}
