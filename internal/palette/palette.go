package palette

import (
	"fmt"
	"image/color"

	"github.com/example/growthring/internal/goal"
)

// Palette defines the accent colours used to paint rings.
type Palette struct {
	Name string

	// Per-metric progress arc accents.
	Followers  color.RGBA
	Engagement color.RGBA
	Tweets     color.RGBA

	// Achievement badge
	BadgeFill    color.RGBA
	BadgeOutline color.RGBA
}

// Default returns the built-in palette (fallback).
func Default() *Palette {
	return &Palette{
		Name:         "Default",
		Followers:    goal.Followers.Accent,
		Engagement:   goal.EngagementRate.Accent,
		Tweets:       goal.MonthlyTweets.Accent,
		BadgeFill:    color.RGBA{0xFF, 0xD7, 0x00, 0xFF},
		BadgeOutline: color.RGBA{0xFF, 0x8C, 0x00, 0xFF},
	}
}

// Accent returns the palette colour for the metric key.
func (p *Palette) Accent(m goal.Metric) color.RGBA {
	switch m.Key {
	case goal.Followers.Key:
		return p.Followers
	case goal.EngagementRate.Key:
		return p.Engagement
	case goal.MonthlyTweets.Key:
		return p.Tweets
	}
	return m.Accent
}

// Apply returns m with its accent taken from the palette.
func (p *Palette) Apply(m goal.Metric) goal.Metric {
	if p == nil {
		return m
	}
	return m.WithAccent(p.Accent(m))
}

// Validate checks every accent against the text contrast requirement.
func (p *Palette) Validate() error {
	accents := []struct {
		key string
		c   color.RGBA
	}{
		{"Followers", p.Followers},
		{"Engagement", p.Engagement},
		{"Tweets", p.Tweets},
	}
	for _, a := range accents {
		if err := goal.CheckAccent(a.c); err != nil {
			return fmt.Errorf("palette %q %s: %w", p.Name, a.key, err)
		}
	}
	return nil
}
