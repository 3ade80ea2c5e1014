// Package ocr defines a small abstraction for plugging OCR engines into the
// PDF parsing pipeline. Engines receive self-contained image bytes and
// return recognized text, so implementations can be backed by local
// libraries or remote services without leaking provider concerns into
// callers.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Engine converts a rendered image into text. Image bytes are a complete
// encoded file, PNG unless a caller states otherwise.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}

// ErrNotConfigured is returned by the default engine until a real one is
// installed with SetDefault or passed to a parser directly.
var ErrNotConfigured = errors.New("ocr: no engine configured")

type noopEngine struct{}

func (noopEngine) Recognize(context.Context, []byte) (string, error) {
	return "", fmt.Errorf("%w: pass an ImagesParser or call ocr.SetDefault", ErrNotConfigured)
}

func (noopEngine) Close() error { return nil }

var (
	defaultMu     sync.RWMutex
	defaultEngine Engine = noopEngine{}
)

// Default returns the process-wide engine used by parsers constructed
// without one.
func Default() Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}

// SetDefault installs the process-wide engine. Passing nil restores the
// unconfigured state.
func SetDefault(engine Engine) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if engine == nil {
		defaultEngine = noopEngine{}
		return
	}
	defaultEngine = engine
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, image []byte) (string, error)

func (f EngineFunc) Recognize(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

func (f EngineFunc) Close() error { return nil }
