// Package normalize validates uploaded pictures and re-encodes them as
// bounded-size data URIs.
package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/example/growthring/internal/logger"
)

const (
	// DefaultMaxDimension caps the larger side of a normalized image.
	DefaultMaxDimension = 400
	// MaxFileBytes is the normalizer's own ceiling. Callers enforce a
	// stricter upload limit before getting here.
	MaxFileBytes = 50 << 20
	// MaxSourceDimension guards against decompression bombs.
	MaxSourceDimension = 10000
	// Quality is the JPEG quality of the re-encoded image.
	Quality = 80
)

var (
	ErrNotImage          = errors.New("please select an image file")
	ErrFileTooLarge      = errors.New("file is too large")
	ErrEmptyFile         = errors.New("file is empty")
	ErrZeroDimension     = errors.New("image has no width or height")
	ErrDimensionTooLarge = errors.New("image dimensions are too large")
	ErrDecode            = errors.New("could not decode image")
	ErrEmptyEncoding     = errors.New("image encoding produced no data")
)

// Normalizer turns uploads into Images.
type Normalizer struct {
	log *logger.Logger
}

// New creates a Normalizer. log may be nil.
func New(log *logger.Logger) *Normalizer {
	return &Normalizer{log: logger.OrNop(log).With("component", "normalize")}
}

// Normalize validates f and returns it scaled so neither side exceeds
// maxDimension (DefaultMaxDimension when <= 0). Images are only ever scaled
// down. No partial Image is returned on error.
func (n *Normalizer) Normalize(ctx context.Context, f File, maxDimension int) (Image, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if f == nil {
		return Image{}, ErrEmptyFile
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.MIMEType())), "image/") {
		return Image{}, fmt.Errorf("%w: %s is %q", ErrNotImage, f.Name(), f.MIMEType())
	}
	if f.Size() > MaxFileBytes {
		return Image{}, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, f.Name(), f.Size(), MaxFileBytes)
	}
	if f.Size() == 0 {
		return Image{}, fmt.Errorf("%w: %s", ErrEmptyFile, f.Name())
	}

	data, err := n.read(f)
	if err != nil {
		return Image{}, err
	}
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrDecode, f.Name(), err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return Image{}, fmt.Errorf("%s: %w", f.Name(), err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrDecode, f.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}

	w, h := FitWithin(src.Bounds().Dx(), src.Bounds().Dy(), maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return Image{}, fmt.Errorf("encode %s: %w", f.Name(), err)
	}
	img, err := newImage("image/jpeg", buf.Bytes(), w, h)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", f.Name(), err)
	}
	n.log.Debug("normalized image", "name", f.Name(), "format", format,
		"source", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"output", fmt.Sprintf("%dx%d", w, h), "bytes", buf.Len())
	return img, nil
}

// read loads the file contents. The reader is closed on every path.
func (n *Normalizer) read(f File) (data []byte, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name(), err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			n.log.Warn("error closing upload", "name", f.Name(), "error", cerr)
		}
	}()
	data, err = io.ReadAll(io.LimitReader(rc, MaxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name(), err)
	}
	if len(data) > MaxFileBytes {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name())
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.Name())
	}
	return data, nil
}

func checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w (%dx%d)", ErrZeroDimension, w, h)
	}
	if w > MaxSourceDimension || h > MaxSourceDimension {
		return fmt.Errorf("%w: %dx%d exceeds %dpx", ErrDimensionTooLarge, w, h, MaxSourceDimension)
	}
	return nil
}

// FitWithin scales w×h down, preserving aspect ratio, so the larger side is
// at most max. Sizes already within max are returned unchanged.
func FitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := int(float64(h)*float64(max)/float64(w) + 0.5)
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := int(float64(w)*float64(max)/float64(h) + 0.5)
	if nw < 1 {
		nw = 1
	}
	return nw, max
}
