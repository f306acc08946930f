// Package thumbnail turns user-selected image files into self-contained
// base64 data URIs.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MrSnakeDoc/startpage/internal/logger"
)

var (
	// ErrRead wraps every failure to read the selected file.
	ErrRead = errors.New("failed to read thumbnail")

	// ErrTooLarge is returned when the file exceeds the loader's byte limit.
	ErrTooLarge = errors.New("thumbnail too large")
)

const fallbackType = "application/octet-stream"

// Result is delivered once by LoadAsync.
type Result struct {
	DataURI string
	Err     error
}

// Observer is told about every finished load.
type Observer interface {
	Thumbnail(bytes int, err error)
}

// Loader reads files into data URIs. The zero value has no size limit.
type Loader struct {
	maxBytes int64
	logger   logger.Logger
	obs      Observer
}

// Option customizes a Loader.
type Option func(*Loader)

// WithMaxBytes caps the size of a single file; 0 disables the cap.
func WithMaxBytes(n int64) Option { return func(l *Loader) { l.maxBytes = n } }

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option { return func(l *Loader) { l.logger = log } }

// WithObserver registers a load observer.
func WithObserver(o Observer) Option { return func(l *Loader) { l.obs = o } }

func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads r to the end and returns data:<type>;base64,<bytes>.
//
// declaredType is the media type reported by whoever picked the file; when
// empty the type is sniffed from the content. Image content is accepted as is.
func (l *Loader) Load(ctx context.Context, r io.Reader, declaredType string) (string, error) {
	data, err := l.readAll(ctx, r)
	if err != nil {
		l.observe(0, err)
		return "", err
	}

	uri := DataURI(mediaType(declaredType, data), data)
	l.observe(len(data), nil)
	l.logger.Debug("thumbnail loaded",
		logger.Int("bytes", len(data)),
		logger.String("declared_type", declaredType))
	return uri, nil
}

// LoadAsync runs Load on its own goroutine. The channel receives exactly one
// Result and is then closed. Cancel ctx to abandon the read.
func (l *Loader) LoadAsync(ctx context.Context, r io.Reader, declaredType string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		uri, err := l.Load(ctx, r, declaredType)
		out <- Result{DataURI: uri, Err: err}
	}()
	return out
}

// LoadFile reads a file from disk, taking the declared type from its extension.
func (l *Loader) LoadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		l.observe(0, err)
		return "", fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	return l.Load(ctx, f, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
}

func (l *Loader) readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	src := io.Reader(&ctxReader{ctx: ctx, r: r})
	if l.maxBytes > 0 {
		src = io.LimitReader(src, l.maxBytes+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if l.maxBytes > 0 && int64(buf.Len()) > l.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.maxBytes)
	}
	return buf.Bytes(), nil
}

func (l *Loader) observe(n int, err error) {
	if l.obs != nil {
		l.obs.Thumbnail(n, err)
	}
}

// DataURI encodes data with the given media type.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// mediaType prefers the declared type and sniffs the content otherwise.
// Whitespace is removed so the result is safe inside a data URI header.
func mediaType(declared string, data []byte) string {
	mt := declared
	if strings.TrimSpace(mt) == "" {
		mt = mimetype.Detect(data).String()
	}
	mt = strings.Join(strings.Fields(mt), "")
	if mt == "" {
		mt = fallbackType
	}
	return mt
}

// ctxReader stops a read as soon as ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
