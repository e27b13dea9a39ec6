// Package palette loads the accent colours used for rings.
package palette

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed defaults/*.palette
var embeddedPalettes embed.FS

// Loader handles loading palettes from various sources.
type Loader struct {
	ConfigDir string
	SystemDir string
}

// NewLoader creates a new Loader with standard paths.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "growthring", "palettes"),
		SystemDir: "/usr/share/growthring/palettes",
	}
}

// Load attempts to load a palette by name or path.
// Order:
// 1. If it's a file path that exists, load it.
// 2. Check embedded palettes.
// 3. Check ConfigDir.
// 4. Check SystemDir.
func (l *Loader) Load(name string) (*Palette, error) {
	if name == "" || strings.EqualFold(name, "default") {
		return Default(), nil
	}

	if _, err := os.Stat(name); err == nil {
		return loadFile(name)
	}

	filename := name
	if !strings.HasSuffix(filename, ".palette") {
		filename += ".palette"
	}

	if f, err := embeddedPalettes.Open("defaults/" + filename); err == nil {
		defer f.Close()
		return Parse(f)
	}

	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return loadFile(path)
		}
	}

	return nil, fmt.Errorf("palette '%s' not found", name)
}

// Embedded lists the names of the palettes compiled into the binary.
func Embedded() []string {
	entries, err := embeddedPalettes.ReadDir("defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".palette"))
	}
	return names
}

func loadFile(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
