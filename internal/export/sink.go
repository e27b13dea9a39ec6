package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/growthring/internal/clipboard"
)

// Sink is where an artifact ends up.
type Sink interface {
	Save(ctx context.Context, a Artifact) (string, error)
}

// DirSink writes artifacts into a directory. Files appear atomically: the
// data goes to a temporary file that is renamed into place, and the
// temporary file is removed on every failure path.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(_ context.Context, a Artifact) (path string, err error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".growth-ring-*.tmp")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(a.Data); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	path = filepath.Join(dir, a.Filename)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// WriterSink streams the PNG bytes to W.
type WriterSink struct {
	W    io.Writer
	Name string
}

func (s WriterSink) Save(_ context.Context, a Artifact) (string, error) {
	if s.W == nil {
		return "", fmt.Errorf("no writer")
	}
	n, err := s.W.Write(a.Data)
	if err != nil {
		return "", err
	}
	if n != len(a.Data) {
		return "", io.ErrShortWrite
	}
	if s.Name == "" {
		return "stream", nil
	}
	return s.Name, nil
}

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WritePNG

// ClipboardSink publishes the PNG on the system clipboard.
type ClipboardSink struct{}

func (ClipboardSink) Save(_ context.Context, a Artifact) (string, error) {
	if err := writeClipboard(a.Data); err != nil {
		return "", err
	}
	return "clipboard", nil
}
