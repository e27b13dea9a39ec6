package normalize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File is an uploaded picture: a declared MIME type and size plus a way to
// read its bytes. Readers returned by Open are always closed by the
// normalizer.
type File interface {
	Name() string
	MIMEType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// LocalFile is a File on disk.
type LocalFile struct {
	path     string
	mimeType string
	size     int64
}

// OpenLocal stats path and determines its MIME type. Non-empty files are
// sniffed from content; empty files fall back to the extension.
func OpenLocal(path string) (*LocalFile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	mt := mime.TypeByExtension(filepath.Ext(path))
	if st.Size() > 0 {
		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return nil, fmt.Errorf("detect type of %s: %w", path, err)
		}
		mt = detected.String()
	}
	return &LocalFile{path: path, mimeType: mt, size: st.Size()}, nil
}

func (f *LocalFile) Name() string     { return filepath.Base(f.path) }
func (f *LocalFile) MIMEType() string { return f.mimeType }
func (f *LocalFile) Size() int64      { return f.size }

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemoryFile is a File backed by a byte slice.
type MemoryFile struct {
	FileName string
	Type     string
	Data     []byte
}

func (f *MemoryFile) Name() string     { return f.FileName }
func (f *MemoryFile) MIMEType() string { return f.Type }
func (f *MemoryFile) Size() int64      { return int64(len(f.Data)) }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

// FromImage encodes img as PNG so it can be fed through the normalizer like an
// upload.
func FromImage(name string, img image.Image) (*MemoryFile, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &MemoryFile{FileName: name, Type: "image/png", Data: buf.Bytes()}, nil
}

// FromBytes wraps data, taking its MIME type from the content.
func FromBytes(name string, data []byte) *MemoryFile {
	return &MemoryFile{FileName: name, Type: mimetype.Detect(data).String(), Data: data}
}
