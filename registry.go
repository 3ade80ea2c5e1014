package pdfaf

import "context"

// Parser turns a Blob into a lazy sequence of Documents.
type Parser interface {
	// CanParse reports whether this parser handles content of the given
	// type or path.
	CanParse(mimeType, path string) bool

	// LazyParse emits Documents on demand: the consumer pulls one record
	// at a time and pays extraction cost only for what it reads. Both
	// channels are closed when parsing ends; a value on the error channel
	// terminates the sequence.
	LazyParse(ctx context.Context, blob *Blob) (<-chan Document, <-chan error)
}

// Parse drains LazyParse into a slice. Documents produced before the error
// are returned alongside it.
func Parse(ctx context.Context, p Parser, blob *Blob) ([]Document, error) {
	docsCh, errsCh := p.LazyParse(ctx, blob)
	var docs []Document
	for doc := range docsCh {
		docs = append(docs, doc)
	}
	if err := <-errsCh; err != nil {
		return docs, err
	}
	return docs, nil
}

// lazyParse runs fn on its own goroutine and adapts it to the channel pair
// every Parser exposes.
func lazyParse(ctx context.Context, blob *Blob, fn func(ctx context.Context, blob *Blob, out chan<- Document) error) (<-chan Document, <-chan error) {
	docs := make(chan Document)
	errs := make(chan error, 1)
	go func() {
		defer close(docs)
		defer close(errs)
		if err := fn(ctx, blob, docs); err != nil {
			errs <- err
		}
	}()
	return docs, errs
}

// emitDocument validates and sends one Document, honoring cancellation.
func emitDocument(ctx context.Context, out chan<- Document, doc Document) error {
	if err := ValidateMetadata(doc.Metadata); err != nil {
		return err
	}
	select {
	case out <- doc:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Registry routes blobs to the first registered parser that accepts them.
type Registry struct {
	parsers []Parser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry registers the pure-Go backends that work with zero
// configuration: the native parser first, then the pdfcpu one.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	native, _ := NewPDFParser(PDFOptions{})
	cpu, _ := NewPDFCPUParser(PDFCPUOptions{})
	r.Register(native)
	r.Register(cpu)
	return r
}

// Register appends a parser. Registration order is match order.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// ParserFor returns the first parser that can handle the content, or nil
// when none match.
func (r *Registry) ParserFor(mimeType, path string) Parser {
	for _, p := range r.parsers {
		if p.CanParse(mimeType, path) {
			return p
		}
	}
	return nil
}

// Parsers returns the registered parsers in match order.
func (r *Registry) Parsers() []Parser {
	return r.parsers
}
