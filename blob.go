package pdfaf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Blob is a byte-bearing input handle. Data takes precedence over Path when
// both are set; a path-only blob reads from disk on demand. For object-store
// blobs Path holds the s3://bucket/key URL, which cloud backends use to
// submit the document by reference instead of shipping bytes.
type Blob struct {
	// Path locates the content. Local paths are read lazily by Bytes.
	Path string
	// Data is the in-memory content, if already loaded.
	Data []byte
	// MimeType is the declared content type, if known.
	MimeType string
	// Metadata carries source-specific details. A "source" entry overrides
	// the identifier derived from Path.
	Metadata map[string]any
}

// BlobFromPath returns a Blob whose bytes are read from a local file on
// demand.
func BlobFromPath(path string) *Blob {
	return &Blob{Path: path, MimeType: DetectMimeType(path, nil)}
}

// BlobFromData returns an in-memory Blob. The path is optional and serves
// only as the source identifier.
func BlobFromData(data []byte, path string) *Blob {
	return &Blob{Path: path, Data: data, MimeType: DetectMimeType(path, data)}
}

// Source returns the canonical source identifier: the metadata "source"
// entry when present, otherwise the path.
func (b *Blob) Source() string {
	if s, ok := b.Metadata["source"].(string); ok && s != "" {
		return s
	}
	return b.Path
}

// Bytes returns the blob content, reading from Path when not in memory.
func (b *Blob) Bytes() ([]byte, error) {
	if b.Data != nil {
		return b.Data, nil
	}
	if b.Path == "" {
		return nil, errors.New("blob has neither data nor path")
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", b.Path, err)
	}
	return data, nil
}

// Reader returns a seekable reader over the blob content.
func (b *Blob) Reader() (io.ReadSeeker, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// blobFile returns a filesystem path holding the blob content, spooling
// in-memory data to a temporary file when needed. The cleanup func removes
// any file this call created.
func blobFile(b *Blob) (path string, cleanup func(), err error) {
	if b.Data == nil && b.Path != "" && !strings.Contains(b.Path, "://") {
		return b.Path, func() {}, nil
	}
	data, err := b.Bytes()
	if err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp("", "pdfaf_*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("spooling blob: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("spooling blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("spooling blob: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// Source yields blobs from some storage, typically a filesystem tree or an
// object store. Both channels are closed when traversal ends.
type Source interface {
	// Type identifies the source kind, e.g. "filesystem" or "s3".
	Type() string

	// Blobs streams the source's content. Errors that abort the traversal
	// arrive on the error channel.
	Blobs(ctx context.Context) (<-chan *Blob, <-chan error)
}

var mimeTypesByExtension = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// DetectMimeType determines a content type from the file extension, falling
// back to content sniffing when the extension is unknown.
func DetectMimeType(path string, content []byte) string {
	if mt, ok := mimeTypesByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	if len(content) > 0 {
		return http.DetectContentType(content)
	}
	return ""
}
