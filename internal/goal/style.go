package goal

import (
	"fmt"
	"strings"
)

// Style controls how the progress arc is painted.
type Style struct {
	Key          string
	Label        string
	UsesGradient bool
	HasGlow      bool
}

var (
	Classic      = Style{Key: "classic", Label: "Classic"}
	GradientGlow = Style{Key: "gradient", Label: "Gradient Glow", UsesGradient: true, HasGlow: true}
	NeonPulse    = Style{Key: "neon", Label: "Neon Pulse", HasGlow: true}
)

var styles = []Style{Classic, GradientGlow, NeonPulse}

// Styles returns the available ring styles in display order.
func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

// StyleByKey looks up a style by key (case-insensitive).
func StyleByKey(key string) (Style, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, s := range styles {
		if s.Key == k {
			return s, nil
		}
	}
	return Style{}, fmt.Errorf("%w: %q", ErrUnknownStyle, key)
}

// Next returns the style after s, wrapping around.
func (s Style) Next() Style {
	for i, candidate := range styles {
		if candidate.Key == s.Key {
			return styles[(i+1)%len(styles)]
		}
	}
	return styles[0]
}
