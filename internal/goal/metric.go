// Package goal describes what a growth ring tracks: the goal metric, the ring
// style, and the progress toward the target.
package goal

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// ErrUnknownMetric is returned when a metric key is not recognised.
	ErrUnknownMetric = errors.New("unknown goal metric")
	// ErrUnknownStyle is returned when a ring style key is not recognised.
	ErrUnknownStyle = errors.New("unknown ring style")
)

// Format selects how a metric value is displayed.
type Format int

const (
	// FormatSeparated renders an integer with thousands separators.
	FormatSeparated Format = iota
	// FormatPercent renders a percentage with one decimal place.
	FormatPercent
	// FormatInteger renders a plain integer.
	FormatInteger
)

// Metric is a tracked quantity with its display rules.
type Metric struct {
	Key    string
	Label  string
	Accent color.RGBA
	Format Format
}

// Built-in metrics. Accents satisfy MinAccentContrast against white and black.
var (
	Followers = Metric{
		Key:    "followers",
		Label:  "Followers",
		Accent: color.RGBA{0x1A, 0x8C, 0xD8, 0xFF},
		Format: FormatSeparated,
	}
	EngagementRate = Metric{
		Key:    "engagement",
		Label:  "Engagement Rate",
		Accent: color.RGBA{0x00, 0xA3, 0x5C, 0xFF},
		Format: FormatPercent,
	}
	MonthlyTweets = Metric{
		Key:    "tweets",
		Label:  "Monthly Tweets",
		Accent: color.RGBA{0x78, 0x56, 0xFF, 0xFF},
		Format: FormatInteger,
	}
)

var metrics = []Metric{Followers, EngagementRate, MonthlyTweets}

// Metrics returns the built-in metrics in display order.
func Metrics() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}

// MetricByKey looks up a metric by its key (case-insensitive).
func MetricByKey(key string) (Metric, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, m := range metrics {
		if m.Key == k {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
}

// Next returns the metric after m in display order, wrapping around.
func (m Metric) Next() Metric {
	for i, candidate := range metrics {
		if candidate.Key == m.Key {
			return metrics[(i+1)%len(metrics)]
		}
	}
	return metrics[0]
}

// WithAccent returns a copy of m using the provided accent colour.
func (m Metric) WithAccent(c color.RGBA) Metric {
	m.Accent = c
	return m
}

var (
	printer = message.NewPrinter(language.English)
	upper   = cases.Upper(language.English)
)

// FormatValue renders v according to the metric's formatting rule.
func (m Metric) FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	switch m.Format {
	case FormatPercent:
		return fmt.Sprintf("%.1f%%", v)
	case FormatInteger:
		return fmt.Sprintf("%d", int64(math.Round(v)))
	default:
		return printer.Sprintf("%d", int64(math.Round(v)))
	}
}

// UpperLabel is the label as drawn under the ring.
func (m Metric) UpperLabel() string {
	return upper.String(m.Label)
}
