package pdfaf

import "testing"

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		in      Mode
		want    Mode
		wantErr bool
	}{
		{"", ModePage, false},
		{ModePage, ModePage, false},
		{ModeSingle, ModeSingle, false},
		{"chapter", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("normalizeMode(%q) = %q, %v, want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNormalizeImagesFormat(t *testing.T) {
	if got, err := normalizeImagesFormat(""); err != nil || got != ImagesText {
		t.Errorf("normalizeImagesFormat(\"\") = %q, %v, want %q", got, err, ImagesText)
	}
	if _, err := normalizeImagesFormat("jpg"); err == nil {
		t.Error("normalizeImagesFormat(jpg) succeeded, want error")
	}
}

func TestNormalizeTableFormat(t *testing.T) {
	if got, err := normalizeTableFormat(TablesNone); err != nil || got != TablesNone {
		t.Errorf("normalizeTableFormat(none) = %q, %v, want empty and nil", got, err)
	}
	if got, err := normalizeTableFormat(TablesCSV); err != nil || got != TablesCSV {
		t.Errorf("normalizeTableFormat(csv) = %q, %v", got, err)
	}
	if _, err := normalizeTableFormat("xml"); err == nil {
		t.Error("normalizeTableFormat(xml) succeeded, want error")
	}
}

func TestNormalizeTextMode(t *testing.T) {
	if got, err := normalizeTextMode(""); err != nil || got != TextPlain {
		t.Errorf("normalizeTextMode(\"\") = %q, %v, want %q", got, err, TextPlain)
	}
	if _, err := normalizeTextMode("fancy"); err == nil {
		t.Error("normalizeTextMode(fancy) succeeded, want error")
	}
}

func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\r\nb", "a\nb"},
		{"a\rb", "a\nb"},
		{"a\nb", "a\nb"},
		{"a\r\n\r\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		if got := normalizeNewlines(tt.in); got != tt.want {
			t.Errorf("normalizeNewlines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
