package timeexpr

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const day = 24 * time.Hour

var namedIntervals = map[string]time.Duration{
	"daily":   day,
	"weekly":  7 * day,
	"monthly": 30 * day,
}

var everyPattern = regexp.MustCompile(`\bevery\s+(\d+)\s+(minute|hour|day)s?\b`)

// ParseRecurrence converts a recurrence phrase into its interval.
// "daily", "weekly" and "monthly" (30 days) are exact phrases;
// "every N minute(s)|hour(s)|day(s)" may appear anywhere in the phrase.
// Anything else is rejected with an *Error.
func ParseRecurrence(phrase string) (time.Duration, error) {
	normalized := strings.ToLower(strings.TrimSpace(phrase))
	if normalized == "" {
		return 0, newError(phrase, "recurrence is empty", ErrEmpty)
	}

	if d, ok := namedIntervals[normalized]; ok {
		return d, nil
	}

	m := everyPattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0, newError(phrase, "no known recurrence form matches", ErrUnrecognized)
	}

	amount, err := parseAmount(m[1])
	if err != nil {
		return 0, newError(phrase, err.Error(), ErrOutOfRange)
	}
	return time.Duration(amount) * unitDuration(m[2]), nil
}

// DescribeInterval renders an interval the way users phrase it, e.g. "daily" or "every 2 hours"
func DescribeInterval(d time.Duration) string {
	for name, interval := range namedIntervals {
		if d == interval {
			return name
		}
	}

	switch {
	case d >= day && d%day == 0:
		return plural(int(d/day), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return "every " + d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "every " + unit
	}
	return fmt.Sprintf("every %d %ss", n, unit)
}
