package normalize

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Image is a normalized picture held as a self-contained data URI. It is
// never mutated; a new upload replaces it wholesale.
type Image struct {
	uri    string
	width  int
	height int
}

// newImage wraps an encoded payload. An empty payload is the "data:," marker
// and is rejected.
func newImage(mimeType string, payload []byte, width, height int) (Image, error) {
	if len(payload) == 0 {
		return Image{}, ErrEmptyEncoding
	}
	uri := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(payload)
	return Image{uri: uri, width: width, height: height}, nil
}

// ParseDataURI wraps an existing base64 data URI.
func ParseDataURI(uri string) (Image, error) {
	img := Image{uri: uri}
	if _, _, err := img.Payload(); err != nil {
		return Image{}, err
	}
	return img, nil
}

// DataURI returns the encoded image string.
func (i Image) DataURI() string { return i.uri }

// IsZero reports whether i holds no image.
func (i Image) IsZero() bool { return i.uri == "" }

// Size returns the pixel dimensions recorded at normalization, or zeros for
// images built with ParseDataURI.
func (i Image) Size() (width, height int) { return i.width, i.height }

// Payload decodes the data URI into its MIME type and raw bytes.
func (i Image) Payload() (string, []byte, error) {
	rest, ok := strings.CutPrefix(i.uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URI", ErrDecode)
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed data URI", ErrDecode)
	}
	if encoded == "" {
		return "", nil, ErrEmptyEncoding
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: data URI is not base64", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return mimeType, data, nil
}
