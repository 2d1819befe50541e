// Package period parses the compact period strings used in the household
// configuration, like "3d", "2w", or "1m".
package period

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformed indicates a period string that could not be parsed.
var ErrMalformed = errors.New("malformed period")

// Days in each unit. A month is a fixed 30 days, not a calendar month.
const (
	daysPerWeek  = 7
	daysPerMonth = 30
)

// Parse converts a period string of the form <n><unit> into a number of
// days, where unit is d (days), w (weeks), or m (30-day months). Unknown
// units and non-positive magnitudes are rejected rather than defaulting;
// the validate command catches bad periods before they reach the stores.
func Parse(s string) (int, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid magnitude in %q", ErrMalformed, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: non-positive magnitude in %q", ErrMalformed, s)
	}

	switch unit {
	case 'd':
		return n, nil
	case 'w':
		return n * daysPerWeek, nil
	case 'm':
		return n * daysPerMonth, nil
	}
	return 0, fmt.Errorf("%w: unknown unit %q in %q", ErrMalformed, string(unit), s)
}
