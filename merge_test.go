package pdfaf

import "testing"

func TestMergeTextAndExtras(t *testing.T) {
	tests := []struct {
		name   string
		extras []string
		text   string
		want   string
	}{
		{
			name:   "no extras leaves text unchanged",
			extras: nil,
			text:   "First paragraph.\n\nSecond paragraph.",
			want:   "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:   "blank extras leave text unchanged",
			extras: []string{"", ""},
			text:   "First paragraph.\n\nSecond paragraph.",
			want:   "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:   "no boundary appends after blank line",
			extras: []string{"X"},
			text:   "ABC",
			want:   "ABC\n\nX",
		},
		{
			name:   "empty text yields extras alone",
			extras: []string{"X"},
			text:   "",
			want:   "\n\nX",
		},
		{
			name:   "splices at penultimate double boundary",
			extras: []string{"X"},
			text:   "A\n\nB\n\nC",
			want:   "A\n\nX\n\nB\n\nC",
		},
		{
			name:   "triple boundary wins over double",
			extras: []string{"X"},
			text:   "A\n\n\nB\n\nC",
			want:   "A\n\n\nX\n\n\nB\n\nC",
		},
		{
			name:   "single boundary text splices before it",
			extras: []string{"X"},
			text:   "A\n\nB",
			want:   "A\n\nX\n\nB",
		},
		{
			name:   "multiple extras joined by blank lines",
			extras: []string{"X", "Y"},
			text:   "A\n\nB\n\nC",
			want:   "A\n\nX\n\nY\n\nB\n\nC",
		},
		{
			name:   "blank entries among extras are dropped",
			extras: []string{"", "X", ""},
			text:   "A\n\nB\n\nC",
			want:   "A\n\nX\n\nB\n\nC",
		},
		{
			name:   "no boundary joins all extras at the end",
			extras: []string{"X", "Y"},
			text:   "ABC",
			want:   "ABC\n\nX\n\nY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTextAndExtras(tt.extras, tt.text)
			if got != tt.want {
				t.Errorf("MergeTextAndExtras(%q, %q) = %q, want %q", tt.extras, tt.text, got, tt.want)
			}
		})
	}
}

func TestMergeTextAndExtrasKeepsTrailingParagraph(t *testing.T) {
	// The look-back pass keeps a short trailing paragraph (a footer, a
	// page number) at the very end instead of splicing after it.
	text := "Body paragraph one.\n\nBody paragraph two.\n\nPage 7"
	got := MergeTextAndExtras([]string{"caption"}, text)
	want := "Body paragraph one.\n\ncaption\n\nBody paragraph two.\n\nPage 7"
	if got != want {
		t.Errorf("MergeTextAndExtras() = %q, want %q", got, want)
	}
}

func TestWrapExtraBlock(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{name: "empty", parts: nil, want: ""},
		{name: "all blank", parts: []string{"", ""}, want: ""},
		{name: "single", parts: []string{"cat"}, want: "\n\ncat\n\n"},
		{name: "joined with newline", parts: []string{"cat", "dog"}, want: "\n\ncat\ndog\n\n"},
		{name: "blank entries dropped", parts: []string{"cat", "", "dog"}, want: "\n\ncat\ndog\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapExtraBlock(tt.parts)
			if got != tt.want {
				t.Errorf("wrapExtraBlock(%q) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}
