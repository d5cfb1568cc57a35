// Package loader implements source.Loader over files, fs.FS entries and HTTP.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-formcover/pkg/source"
)

// Loader reads form documents. File sources always work; fs sources need a
// filesystem and URL sources an HTTP client, both supplied via
// source.LoaderOptions.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

var _ source.Loader = (*Loader)(nil)

// New constructs a Loader. A caller-supplied client is copied so the
// request timeout can be applied without mutating it.
func New(options source.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var client *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		client = &clone
	case options.AllowHTTP:
		client = &http.Client{Timeout: timeout}
	}

	return &Loader{fs: options.FileSystem, http: client, timeout: timeout}
}

// Load returns the raw form document behind src.
func (l *Loader) Load(ctx context.Context, src source.Source) (source.Document, error) {
	if src == nil {
		return source.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case source.KindFile:
		data, err = loadFile(ctx, src.Location())
	case source.KindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case source.KindURL:
		if l.http == nil {
			return source.Document{}, errors.New("loader: URL forms need an HTTP client (source.WithHTTP)")
		}
		data, err = fetchForm(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return source.Document{}, err
	}
	return source.NewDocument(src, data)
}
