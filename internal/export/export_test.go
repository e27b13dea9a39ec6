package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	img *image.RGBA
	err error
}

func (f fakeSurface) Snapshot(context.Context) (*image.RGBA, error) { return f.img, f.err }

type countingFlusher struct{ calls int }

func (f *countingFlusher) Flush(context.Context) error { f.calls++; return nil }

type panicSink struct{}

func (panicSink) Save(context.Context, Artifact) (string, error) { panic("disk on fire") }

type failingSink struct{}

func (failingSink) Save(context.Context, Artifact) (string, error) { return "", errors.New("denied") }

func drawn() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for y := 100; y < 300; y++ {
		for x := 100; x < 300; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img
}

func fixedClock() time.Time { return time.Date(2025, 6, 1, 23, 59, 0, 0, time.Local) }

func TestFilename(t *testing.T) {
	got := Filename(Parts{Metric: "followers", Percent: 42, Date: fixedClock()})
	assert.Equal(t, "growth-ring-followers-42%-2025-06-01.png", got)

	assert.Equal(t, "growth-ring-engagement-100%-2025-06-01.png", Filename(Parts{Metric: "engagement", Percent: 99.6, Date: fixedClock()}))
	assert.Equal(t, "growth-ring-my-goal-0%-2025-06-01.png", Filename(Parts{Metric: "My Goal", Date: fixedClock()}))
}

func TestExportEmptyCanvas(t *testing.T) {
	e := New(WithClock(fixedClock))
	_, err := e.Export(context.Background(), fakeSurface{img: image.NewRGBA(image.Rect(0, 0, 400, 400))}, Parts{})
	assert.ErrorIs(t, err, ErrEmptyCanvas)

	_, err = e.Export(context.Background(), nil, Parts{})
	assert.ErrorIs(t, err, ErrEmptyCanvas)
}

func TestExportEncodesLosslessPNG(t *testing.T) {
	flusher := &countingFlusher{}
	e := New(WithClock(fixedClock), WithFlusher(flusher))
	src := drawn()

	a, err := e.Export(context.Background(), fakeSurface{img: src}, Parts{Metric: "followers", Percent: 42})
	require.NoError(t, err)
	assert.Equal(t, 1, flusher.calls)
	assert.Equal(t, "growth-ring-followers-42%-2025-06-01.png", a.Filename)
	assert.Equal(t, 400, a.Width)
	assert.GreaterOrEqual(t, len(a.Data), MinEncodedBytes)

	decoded, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, src.At(150, 150), color.RGBAModel.Convert(decoded.At(150, 150)))
}

func TestExportSnapshotError(t *testing.T) {
	boom := errors.New("closed")
	_, err := New().Export(context.Background(), fakeSurface{err: boom}, Parts{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEmptyCanvas)
}

func TestEmitToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rings")
	e := New()
	a := Artifact{Filename: "growth-ring-followers-42%-2025-06-01.png", Data: []byte("pretend png data")}

	where, err := e.Emit(context.Background(), a, DirSink{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, a.Filename), where)

	data, err := os.ReadFile(where)
	require.NoError(t, err)
	assert.Equal(t, a.Data, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestEmitFailuresAreExportFailed(t *testing.T) {
	e := New()
	a := Artifact{Filename: "x.png", Data: []byte("data")}

	_, err := e.Emit(context.Background(), a, panicSink{})
	assert.ErrorIs(t, err, ErrExportFailed)

	_, err = e.Emit(context.Background(), a, failingSink{})
	assert.ErrorIs(t, err, ErrExportFailed)

	_, err = e.Emit(context.Background(), a, nil)
	assert.ErrorIs(t, err, ErrExportFailed)

	_, err = e.Emit(context.Background(), Artifact{Filename: "x.png"}, WriterSink{W: &bytes.Buffer{}})
	assert.ErrorIs(t, err, ErrEncodingEmpty)
}

func TestDirSinkCleansUpOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should go makes the rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "taken.png"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taken.png", "keep"), []byte("x"), 0o644))

	_, err := DirSink{Dir: dir}.Save(context.Background(), Artifact{Filename: "taken.png", Data: []byte("data")})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriterAndClipboardSinks(t *testing.T) {
	var buf bytes.Buffer
	where, err := New().Emit(context.Background(), Artifact{Data: []byte("png")}, WriterSink{W: &buf, Name: "stdout"})
	require.NoError(t, err)
	assert.Equal(t, "stdout", where)
	assert.Equal(t, "png", buf.String())

	var copied []byte
	orig := writeClipboard
	writeClipboard = func(b []byte) error { copied = b; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	where, err = New().Emit(context.Background(), Artifact{Data: []byte("png")}, ClipboardSink{})
	require.NoError(t, err)
	assert.Equal(t, "clipboard", where)
	assert.Equal(t, []byte("png"), copied)
}
