package model

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Weekdays is a task's schedule mask. An empty mask means every day.
type Weekdays []int

// ParseWeekdays parses a comma separated list such as "1,3,5".
func ParseWeekdays(s string) (Weekdays, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var w Weekdays
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse weekday %q: %w", part, err)
		}
		w = append(w, n)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w.normalize(), nil
}

// Validate checks every entry is in 0..6.
func (w Weekdays) Validate() error {
	for _, d := range w {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d out of range 0-6", d)
		}
	}
	return nil
}

func (w Weekdays) normalize() Weekdays {
	out := slices.Clone(w)
	slices.Sort(out)
	return slices.Compact(out)
}

func (w Weekdays) Contains(day time.Weekday) bool {
	return slices.Contains(w, int(day))
}

func (w Weekdays) String() string {
	norm := w.normalize()
	parts := make([]string, len(norm))
	for i, d := range norm {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func (w Weekdays) Value() (driver.Value, error) {
	return w.String(), nil
}

func (w *Weekdays) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan weekdays: unsupported type %T", src)
	}
	parsed, err := ParseWeekdays(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
