package pdfaf

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// FilesystemSourceConfig holds configuration for a FilesystemSource.
type FilesystemSourceConfig struct {
	// BaseDir is the base directory to traverse.
	BaseDir string

	// IncludePatterns is a list of glob patterns to include. Files
	// matching any include pattern are yielded. If empty, all files are
	// included, subject to exclude patterns. Supports ** wildcards.
	IncludePatterns []string

	// ExcludePatterns is a list of glob patterns to exclude, checked
	// before includes. .git/** is always excluded. Supports ** wildcards.
	ExcludePatterns []string

	// Logger receives traversal warnings.
	Logger *zap.Logger
}

// FilesystemSource traverses a local directory tree and yields its files as
// blobs.
type FilesystemSource struct {
	config FilesystemSourceConfig
	logger *zap.Logger
}

// NewFilesystemSource creates a filesystem source.
func NewFilesystemSource(config FilesystemSourceConfig) *FilesystemSource {
	config.ExcludePatterns = append([]string{".git/**"}, config.ExcludePatterns...)
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemSource{config: config, logger: logger}
}

// Type returns "filesystem".
func (fs *FilesystemSource) Type() string {
	return "filesystem"
}

// Blobs walks the directory tree and yields a blob for every matching file.
func (fs *FilesystemSource) Blobs(ctx context.Context) (<-chan *Blob, <-chan error) {
	blobs := make(chan *Blob)
	errs := make(chan error, 1)

	go func() {
		defer close(blobs)
		defer close(errs)

		err := filepath.Walk(fs.config.BaseDir, func(path string, info os.FileInfo, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				return err
			}

			relPath, err := filepath.Rel(fs.config.BaseDir, path)
			if err != nil {
				relPath = path
			}
			// The base directory itself matches no pattern and must never
			// be pruned.
			if relPath == "." {
				return nil
			}

			for _, pattern := range fs.config.ExcludePatterns {
				matched, err := doublestar.Match(pattern, relPath)
				if err != nil {
					fs.logger.Warn("invalid exclude pattern",
						zap.String("pattern", pattern), zap.Error(err))
					continue
				}
				if matched {
					if info.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}

			if len(fs.config.IncludePatterns) > 0 {
				included := false
				for _, pattern := range fs.config.IncludePatterns {
					matched, err := doublestar.Match(pattern, relPath)
					if err != nil {
						fs.logger.Warn("invalid include pattern",
							zap.String("pattern", pattern), zap.Error(err))
						continue
					}
					if matched {
						included = true
						break
					}
				}
				if !included {
					if info.IsDir() {
						// A directory only gets pruned when no
						// pattern could match deeper inside it.
						for _, pattern := range fs.config.IncludePatterns {
							if strings.Contains(pattern, "**") {
								return nil
							}
						}
						return filepath.SkipDir
					}
					return nil
				}
			}

			if info.IsDir() {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				fs.logger.Warn("skipping unreadable file",
					zap.String("path", path), zap.Error(err))
				return nil
			}

			blob := &Blob{
				Path:     relPath,
				Data:     content,
				MimeType: DetectMimeType(path, content),
				Metadata: map[string]any{
					"source":      path,
					"source_type": "filesystem",
					"file_size":   info.Size(),
					"mod_time":    info.ModTime(),
				},
			}

			select {
			case blobs <- blob:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if err != nil {
			errs <- err
		}
	}()

	return blobs, errs
}
