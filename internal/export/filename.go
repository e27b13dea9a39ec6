package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/growthring/internal/goal"
)

// Prefix starts every exported filename.
const Prefix = "growth-ring"

// Parts are the pieces of an exported filename.
type Parts struct {
	Metric  string
	Percent float64
	// Date defaults to the exporter's clock.
	Date time.Time
}

// Filename builds growth-ring-<metric>-<percent>%-<YYYY-MM-DD>.png.
func Filename(p Parts) string {
	return fmt.Sprintf("%s-%s-%d%%-%s.png", Prefix, slug(p.Metric), goal.Rounded(p.Percent), p.Date.Format(time.DateOnly))
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "goal"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}
