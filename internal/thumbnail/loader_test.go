package thumbnail

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

type recorder struct {
	loads, fails int
}

func (r *recorder) Thumbnail(_ int, err error) {
	r.loads++
	if err != nil {
		r.fails++
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
	}{
		{"declared type wins", []byte("abc"), "image/gif", "data:image/gif;base64,YWJj"},
		{"declared type spaces removed", []byte("abc"), " image/svg+xml ", "data:image/svg+xml;base64,YWJj"},
		{"sniffed png", pngBytes, "", "data:image/png;base64,"},
		{"empty file", []byte{}, "image/png", "data:image/png;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLoader().Load(context.Background(), strings.NewReader(string(tt.data)), tt.declared)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Load() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestLoadReadFailure(t *testing.T) {
	rec := &recorder{}
	l := NewLoader(WithObserver(rec))

	_, err := l.Load(context.Background(), failingReader{io.ErrUnexpectedEOF}, "image/png")
	if !errors.Is(err, ErrRead) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Load() error = %v, want ErrRead wrapping the cause", err)
	}
	if rec.fails != 1 {
		t.Errorf("observer saw %d failures, want 1", rec.fails)
	}
}

func TestLoadTooLarge(t *testing.T) {
	l := NewLoader(WithMaxBytes(4))

	if _, err := l.Load(context.Background(), strings.NewReader("1234"), "image/png"); err != nil {
		t.Errorf("Load(at limit) error = %v", err)
	}
	if _, err := l.Load(context.Background(), strings.NewReader("12345"), "image/png"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Load(over limit) error = %v, want ErrTooLarge", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().Load(ctx, strings.NewReader("abc"), "image/png")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoadAsync(t *testing.T) {
	ch := NewLoader().LoadAsync(context.Background(), strings.NewReader("abc"), "image/gif")

	select {
	case res := <-ch:
		if res.Err != nil || res.DataURI != "data:image/gif;base64,YWJj" {
			t.Errorf("LoadAsync() = %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LoadAsync() did not deliver")
	}

	if _, open := <-ch; open {
		t.Error("LoadAsync() channel should be closed after the result")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(path, pngBytes, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := NewLoader().LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,iVBORw0KGgo") {
		t.Errorf("LoadFile() = %q", got)
	}

	if _, err := NewLoader().LoadFile(context.Background(), filepath.Join(dir, "missing.png")); !errors.Is(err, ErrRead) {
		t.Errorf("LoadFile(missing) error = %v, want ErrRead", err)
	}
}
