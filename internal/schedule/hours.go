package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Hours is an inclusive working-hours window. Comparison is done on
// minutes-since-midnight integers, never on the raw strings, so a malformed
// time is an error instead of a silently wrong answer.
type Hours struct {
	start int
	end   int
}

// NewHours builds a window from "HH:MM" 24-hour bounds, inclusive both ends.
func NewHours(start, end string) (Hours, error) {
	s, err := minutesOfDay(start)
	if err != nil {
		return Hours{}, fmt.Errorf("start: %w", err)
	}
	e, err := minutesOfDay(end)
	if err != nil {
		return Hours{}, fmt.Errorf("end: %w", err)
	}
	if e < s {
		return Hours{}, fmt.Errorf("window end %s precedes start %s", end, start)
	}
	return Hours{start: s, end: e}, nil
}

// Within reports whether timeOfDay ("HH:MM") falls inside the window.
// Both boundary values count as inside.
func (h Hours) Within(timeOfDay string) (bool, error) {
	m, err := minutesOfDay(timeOfDay)
	if err != nil {
		return false, err
	}
	return h.start <= m && m <= h.end, nil
}

func minutesOfDay(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time %q has an invalid hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q has an invalid minute", s)
	}
	return hour*60 + minute, nil
}
