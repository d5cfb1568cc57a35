package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// loadFile reads a form document from disk. Directories are rejected so a
// mistyped CLI argument fails with a readable message.
func loadFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("loader: form path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("loader: form document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("loader: %s is a directory, expected a JSON or YAML form", abs)
	}
	if info.Size() > maxDocumentBytes {
		return nil, fmt.Errorf("loader: %s is %d bytes, limit is %d", abs, info.Size(), maxDocumentBytes)
	}
	return os.ReadFile(abs)
}
