// Package tesseract provides an ocr.Engine backed by a local Tesseract
// installation through gosseract. It lives in its own package so that
// programs which never use local OCR do not link against the tesseract C
// libraries.
package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Config configures the engine.
type Config struct {
	// Languages are tesseract language codes, defaulting to ["eng"].
	Languages []string
	// DPI sets user_defined_dpi for images without density metadata.
	DPI int
	// Variables are additional tesseract variables applied at startup.
	Variables map[string]string
}

// Engine runs OCR through a local Tesseract installation. The underlying
// client is not safe for concurrent use, so calls are serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New constructs a Tesseract-backed engine. It fails when the configuration
// cannot be applied, typically because a language pack is missing.
func New(cfg Config) (*Engine, error) {
	client := gosseract.NewClient()
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract: setting languages %v: %w", langs, err)
	}
	if cfg.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(cfg.DPI)); err != nil {
			client.Close()
			return nil, fmt.Errorf("tesseract: setting dpi: %w", err)
		}
	}
	for k, v := range cfg.Variables {
		if err := client.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			client.Close()
			return nil, fmt.Errorf("tesseract: setting variable %s: %w", k, err)
		}
	}
	return &Engine{client: client}, nil
}

// Recognize runs OCR on one image.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract: loading image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: recognizing text: %w", err)
	}
	return text, nil
}

// Close releases the tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
