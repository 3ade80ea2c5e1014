package pdfaf

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestBlobBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	content := []byte("%PDF-1.4 stub")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	fromPath := BlobFromPath(path)
	got, err := fromPath.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Bytes() = %q, want %q", got, content)
	}
	if fromPath.MimeType != "application/pdf" {
		t.Errorf("MimeType = %q, want application/pdf", fromPath.MimeType)
	}

	fromData := BlobFromData(content, "")
	got, err = fromData.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Bytes() = %q, want %q", got, content)
	}

	empty := &Blob{}
	if _, err := empty.Bytes(); err == nil {
		t.Error("Bytes() on empty blob succeeded, want error")
	}

	missing := &Blob{Path: filepath.Join(dir, "absent.pdf")}
	if _, err := missing.Bytes(); err == nil {
		t.Error("Bytes() on missing file succeeded, want error")
	}
}

func TestBlobSource(t *testing.T) {
	b := &Blob{Path: "local.pdf"}
	if got := b.Source(); got != "local.pdf" {
		t.Errorf("Source() = %q, want path", got)
	}

	b.Metadata = map[string]any{"source": "s3://bucket/key.pdf"}
	if got := b.Source(); got != "s3://bucket/key.pdf" {
		t.Errorf("Source() = %q, want metadata override", got)
	}

	b.Metadata = map[string]any{"source": ""}
	if got := b.Source(); got != "local.pdf" {
		t.Errorf("Source() with empty override = %q, want path", got)
	}
}

func TestBlobFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, []byte("on disk"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A local path-backed blob is used in place.
	got, cleanup, err := blobFile(&Blob{Path: path})
	if err != nil {
		t.Fatalf("blobFile() error = %v", err)
	}
	cleanup()
	if got != path {
		t.Errorf("blobFile() = %q, want original path %q", got, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("cleanup removed the original file: %v", err)
	}

	// In-memory data is spooled to a temp file that cleanup removes.
	got, cleanup, err = blobFile(&Blob{Path: "s3://bucket/key.pdf", Data: []byte("spooled")})
	if err != nil {
		t.Fatalf("blobFile() error = %v", err)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("reading spooled file: %v", err)
	}
	if string(data) != "spooled" {
		t.Errorf("spooled content = %q, want %q", data, "spooled")
	}
	cleanup()
	if _, err := os.Stat(got); !os.IsNotExist(err) {
		t.Errorf("cleanup left %s behind", got)
	}
}

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content []byte
		want    string
	}{
		{"pdf extension", "report.PDF", nil, "application/pdf"},
		{"jpeg extension", "scan.jpg", nil, "image/jpeg"},
		{"sniffed png", "noext", []byte("\x89PNG\r\n\x1a\n rest"), "image/png"},
		{"nothing to go on", "noext", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMimeType(tt.path, tt.content); got != tt.want {
				t.Errorf("DetectMimeType(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestBlobReader(t *testing.T) {
	b := BlobFromData([]byte("abcdef"), "x.bin")
	r, err := b.Reader()
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	if _, err := r.Seek(3, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != "def" {
		t.Errorf("read after seek = %q, want %q", rest, "def")
	}
}
