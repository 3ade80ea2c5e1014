package pdfaf

import "testing"

func TestNewS3SourceValidation(t *testing.T) {
	if _, err := NewS3Source(S3SourceConfig{Bucket: "docs"}); err == nil {
		t.Error("NewS3Source() without endpoint succeeded, want error")
	}
	if _, err := NewS3Source(S3SourceConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Error("NewS3Source() without bucket succeeded, want error")
	}

	src, err := NewS3Source(S3SourceConfig{
		Endpoint: "localhost:9000",
		Bucket:   "docs",
		Credentials: &S3Credentials{
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
		},
	})
	if err != nil {
		t.Fatalf("NewS3Source() error = %v", err)
	}
	if src.Type() != "s3" {
		t.Errorf("Type() = %q, want s3", src.Type())
	}
}

func TestMatchesAnyPattern(t *testing.T) {
	patterns := []string{"**/*.tmp", "drafts/**", "**/.DS_Store"}

	tests := []struct {
		path string
		want bool
	}{
		{"report.pdf", false},
		{"docs/guide.pdf", false},
		{"temp.tmp", true},
		{"docs/temp.tmp", true},
		{"drafts/new.pdf", true},
		{"drafts/folder/doc.pdf", true},
		{".DS_Store", true},
		{"docs/.DS_Store", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := matchesAnyPattern(tt.path, patterns); got != tt.want {
				t.Errorf("matchesAnyPattern(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if matchesAnyPattern("anything.pdf", nil) {
		t.Error("matchesAnyPattern() with no patterns = true, want false")
	}
	if matchesAnyPattern("x", []string{"[bad"}) {
		t.Error("matchesAnyPattern() with an invalid pattern = true, want false")
	}
}
