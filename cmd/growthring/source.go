package main

import (
	"errors"
	"fmt"

	"github.com/example/growthring/internal/clipboard"
	"github.com/example/growthring/internal/normalize"
)

var readClipboardFn = clipboard.ReadPNG

var errNoSource = errors.New("either -image or -from-clipboard is required")

// pictureSource is the -image / -from-clipboard pair shared by render and
// preview.
type pictureSource struct {
	path          string
	fromClipboard bool
}

func (s pictureSource) validate() error {
	switch {
	case s.path != "" && s.fromClipboard:
		return errors.New("-image and -from-clipboard cannot be used together")
	case s.path == "" && !s.fromClipboard:
		return errNoSource
	}
	return nil
}

func (s pictureSource) open() (normalize.File, error) {
	if s.fromClipboard {
		data, err := readClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		return normalize.FromBytes("clipboard", data), nil
	}
	f, err := normalize.OpenLocal(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	return f, nil
}
