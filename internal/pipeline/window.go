package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by windows and filters
const DateLayout = "2006-01-02"

// ParseWindow parses "label:from:to" where from and to are YYYY-MM-DD dates
// and either may be empty. A bare "from" date is accepted as "from:from:".
func ParseWindow(spec string) (Window, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	switch len(parts) {
	case 1:
		from, err := parseDate(parts[0])
		if err != nil {
			return Window{}, fmt.Errorf("window %q: %w", spec, err)
		}
		return Window{Label: parts[0], From: from}, nil
	case 3:
		from, err := parseDate(parts[1])
		if err != nil {
			return Window{}, fmt.Errorf("window %q: from: %w", spec, err)
		}
		to, err := parseDate(parts[2])
		if err != nil {
			return Window{}, fmt.Errorf("window %q: to: %w", spec, err)
		}
		if !from.IsZero() && !to.IsZero() && !to.After(from) {
			return Window{}, fmt.Errorf("window %q: to must be after from", spec)
		}
		label := strings.TrimSpace(parts[0])
		if label == "" {
			label = spec
		}
		return Window{Label: label, From: from, To: to}, nil
	default:
		return Window{}, fmt.Errorf("window %q: expected label:from:to", spec)
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}
