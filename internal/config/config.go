package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/growthring/internal/palette"
)

// Notify holds notification settings.
type Notify struct {
	Export bool `koanf:"export"`
	Copy   bool `koanf:"copy"`
}

// PaletteSpec is one [palette.NAME] section: palette keys to colour values.
type PaletteSpec map[string]string

// Config holds the application configuration.
type Config struct {
	Watermark       string                 `koanf:"watermark"`
	SaveDir         string                 `koanf:"save_dir"`
	Metric          string                 `koanf:"metric" validate:"oneof=followers engagement tweets"`
	Style           string                 `koanf:"style" validate:"oneof=classic gradient neon"`
	Palette         string                 `koanf:"palette"`
	DebounceMS      int                    `koanf:"debounce_ms" validate:"gte=0,lte=5000"`
	DecodeTimeoutMS int                    `koanf:"decode_timeout_ms" validate:"gte=100,lte=120000"`
	MaxUploadMB     int                    `koanf:"max_upload_mb" validate:"gte=1,lte=50"`
	LogMode         string                 `koanf:"log_mode" validate:"oneof=dev prod"`
	Notify          Notify                 `koanf:"notify"`
	Palettes        map[string]PaletteSpec `koanf:"palettes"`
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Watermark:       "growth-ring",
		Metric:          "followers",
		Style:           "classic",
		DebounceMS:      300,
		DecodeTimeoutMS: 10000,
		MaxUploadMB:     10,
		LogMode:         "dev",
		Palettes:        make(map[string]PaletteSpec),
	}
}

var validate = validator.New()

// Validate checks field ranges and that every configured palette parses and
// passes the accent contrast check.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name := range c.Palettes {
		if _, err := c.PaletteByName(name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c *Config) DecodeTimeout() time.Duration {
	return time.Duration(c.DecodeTimeoutMS) * time.Millisecond
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// PaletteByName builds the palette defined in the [palette.NAME] section.
func (c *Config) PaletteByName(name string) (*palette.Palette, error) {
	spec, ok := c.Palettes[name]
	if !ok {
		return nil, fmt.Errorf("palette %q not defined in config", name)
	}
	p := palette.Default()
	p.Name = name
	for k, v := range spec {
		if err := palette.SetField(p, k, v); err != nil {
			return nil, fmt.Errorf("error in section [palette.%s]: %w", name, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ResolvePalette picks the palette named by name, or by the config when name
// is empty. Config sections win over files and embedded palettes.
func (c *Config) ResolvePalette(name string, l *palette.Loader) (*palette.Palette, error) {
	if name == "" {
		name = c.Palette
	}
	if _, ok := c.Palettes[name]; ok {
		return c.PaletteByName(name)
	}
	if l == nil {
		l = palette.NewLoader()
	}
	return l.Load(name)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "watermark = %s\n", c.Watermark)
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	fmt.Fprintf(&sb, "metric = %s\n", c.Metric)
	fmt.Fprintf(&sb, "style = %s\n", c.Style)
	if c.Palette != "" {
		fmt.Fprintf(&sb, "palette = %s\n", c.Palette)
	}
	fmt.Fprintf(&sb, "debounce_ms = %d\n", c.DebounceMS)
	fmt.Fprintf(&sb, "decode_timeout_ms = %d\n", c.DecodeTimeoutMS)
	fmt.Fprintf(&sb, "max_upload_mb = %d\n", c.MaxUploadMB)
	fmt.Fprintf(&sb, "log_mode = %s\n", c.LogMode)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	names := make([]string, 0, len(c.Palettes))
	for name := range c.Palettes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&sb, "[palette.%s]\n", name)
		p, err := c.PaletteByName(name)
		if err != nil {
			// Invalid sections are written back as they were read.
			keys := make([]string, 0, len(c.Palettes[name]))
			for k := range c.Palettes[name] {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, "%s: %s\n", k, c.Palettes[name][k])
			}
			sb.WriteString("\n")
			continue
		}
		fmt.Fprintf(&sb, "Followers: %s\n", palette.Hex(p.Followers))
		fmt.Fprintf(&sb, "Engagement: %s\n", palette.Hex(p.Engagement))
		fmt.Fprintf(&sb, "Tweets: %s\n", palette.Hex(p.Tweets))
		fmt.Fprintf(&sb, "BadgeFill: %s\n", palette.Hex(p.BadgeFill))
		fmt.Fprintf(&sb, "BadgeOutline: %s\n", palette.Hex(p.BadgeOutline))
		sb.WriteString("\n")
	}

	return sb.String()
}
