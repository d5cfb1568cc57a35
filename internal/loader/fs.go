package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// loadFromFS reads an embedded or in-memory form, e.g. fixtures shipped
// with a test package.
func loadFromFS(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	switch {
	case files == nil:
		return nil, errors.New("loader: no filesystem configured for fs sources")
	case !fs.ValidPath(name):
		return nil, fmt.Errorf("loader: %q is not a valid fs path", name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(files, name)
	if err != nil {
		return nil, fmt.Errorf("loader: form %q: %w", name, err)
	}
	return data, nil
}
