package pdfaf

import (
	"context"

	"go.uber.org/zap"
)

// Processor parses every blob a source yields through a registry. It
// abstracts the traversal mechanism, so the same parsing logic works with
// filesystem trees and object stores.
type Processor struct {
	source   Source
	registry *Registry
	logger   *zap.Logger
}

// NewProcessor wires a source to a registry. A nil registry means
// DefaultRegistry, a nil logger discards.
func NewProcessor(source Source, registry *Registry, logger *zap.Logger) *Processor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{source: source, registry: registry, logger: logger}
}

// Process traverses the source and collects every Document. Blobs without a
// matching parser are skipped; blobs that fail to parse are logged and
// skipped so one broken file cannot sink a batch.
func (p *Processor) Process(ctx context.Context) ([]Document, error) {
	var all []Document
	err := p.ProcessWithCallback(ctx, func(docs []Document) error {
		all = append(all, docs...)
		return nil
	})
	return all, err
}

// ProcessWithCallback traverses the source and calls the callback with each
// blob's Documents, so large batches stream instead of accumulating.
func (p *Processor) ProcessWithCallback(ctx context.Context, callback func([]Document) error) error {
	blobs, errs := p.source.Blobs(ctx)

	for blob := range blobs {
		parser := p.registry.ParserFor(blob.MimeType, blob.Path)
		if parser == nil {
			p.logger.Debug("no parser for blob",
				zap.String("path", blob.Path), zap.String("mime_type", blob.MimeType))
			continue
		}

		docs, err := Parse(ctx, parser, blob)
		if err != nil {
			p.logger.Warn("failed to parse blob",
				zap.String("path", blob.Path), zap.Error(err))
			continue
		}
		if len(docs) == 0 {
			continue
		}
		if err := callback(docs); err != nil {
			return err
		}
	}

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
