// Package timeexpr turns short natural-language time phrases ("in 10 minutes",
// "tomorrow at 9am", "every 2 hours") into concrete instants, offsets and
// recurrence intervals.
//
// Every recognized form is an independent Matcher. A Parser tries its
// matchers in priority order and the first one that recognizes the phrase
// decides the outcome, including rejecting it when the values are out of range.
package timeexpr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tells whether a Result is an offset from now or a wall-clock instant
type Kind int

const (
	Relative Kind = iota + 1
	Absolute
)

func (k Kind) String() string {
	switch k {
	case Relative:
		return "relative"
	case Absolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// maxAmount bounds "in N units" so the offset cannot overflow time.Duration
const maxAmount = 100000

// Result is the outcome of a successful parse
type Result struct {
	Kind   Kind
	Offset time.Duration
	At     time.Time
	// Form names the matcher that recognized the phrase
	Form string
}

// Resolve returns the instant the result denotes relative to now
func (r Result) Resolve(now time.Time) time.Time {
	if r.Kind == Absolute {
		return r.At
	}
	return now.Add(r.Offset)
}

// Matcher recognizes a single form of time expression.
// ok is false when the form does not apply; err is set when the form
// applies but its values are invalid.
type Matcher interface {
	Name() string
	Match(expr string, now time.Time) (result Result, ok bool, err error)
}

// Parser tries its matchers in order; the first match wins
type Parser struct {
	matchers []Matcher
}

// NewParser returns a parser with the default matcher order:
// relative offsets, "tomorrow at", "today at", "next week", "next month".
func NewParser() *Parser {
	return &Parser{
		matchers: []Matcher{
			RelativeMatcher(),
			ClockMatcher("tomorrow", 1),
			ClockMatcher("today", 0),
			FixedOffsetMatcher("next week", 7*24*time.Hour),
			FixedOffsetMatcher("next month", 30*24*time.Hour),
		},
	}
}

// NewParserWith builds a parser from an explicit matcher list
func NewParserWith(matchers ...Matcher) *Parser {
	return &Parser{matchers: matchers}
}

var defaultParser = NewParser()

// Parse parses expr with the default parser
func Parse(expr string, now time.Time) (Result, error) {
	return defaultParser.Parse(expr, now)
}

// Parse returns the result of the first matcher recognizing expr
func (p *Parser) Parse(expr string, now time.Time) (Result, error) {
	normalized := strings.ToLower(strings.TrimSpace(expr))
	if normalized == "" {
		return Result{}, newError(expr, "expression is empty", ErrEmpty)
	}

	for _, m := range p.matchers {
		result, ok, err := m.Match(normalized, now)
		if err != nil {
			return Result{}, newError(expr, err.Error(), ErrOutOfRange)
		}
		if ok {
			result.Form = m.Name()
			return result, nil
		}
	}

	return Result{}, newError(expr, "no known time form matches", ErrUnrecognized)
}

var relativePattern = regexp.MustCompile(`\bin\s+(\d+)\s+(minute|hour|day)s?\b`)

type relativeMatcher struct{}

// RelativeMatcher recognizes "in N minute(s)|hour(s)|day(s)"
func RelativeMatcher() Matcher { return relativeMatcher{} }

func (relativeMatcher) Name() string { return "relative" }

func (relativeMatcher) Match(expr string, _ time.Time) (Result, bool, error) {
	m := relativePattern.FindStringSubmatch(expr)
	if m == nil {
		return Result{}, false, nil
	}

	amount, err := parseAmount(m[1])
	if err != nil {
		return Result{}, true, err
	}

	return Result{Kind: Relative, Offset: time.Duration(amount) * unitDuration(m[2])}, true, nil
}

type clockMatcher struct {
	day       string
	dayOffset int
	pattern   *regexp.Regexp
}

// ClockMatcher recognizes "<day> at H[:MM][am|pm]" and places the time of day
// dayOffset calendar days after today. The result may lie in the past.
func ClockMatcher(day string, dayOffset int) Matcher {
	return clockMatcher{
		day:       day,
		dayOffset: dayOffset,
		pattern:   regexp.MustCompile(`\b` + regexp.QuoteMeta(day) + `\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`),
	}
}

func (c clockMatcher) Name() string { return c.day }

func (c clockMatcher) Match(expr string, now time.Time) (Result, bool, error) {
	m := c.pattern.FindStringSubmatch(expr)
	if m == nil {
		return Result{}, false, nil
	}

	hour, minute, err := clockTime(m[1], m[2], m[3])
	if err != nil {
		return Result{}, true, err
	}

	y, mo, d := now.Date()
	at := time.Date(y, mo, d+c.dayOffset, hour, minute, 0, 0, now.Location())
	return Result{Kind: Absolute, At: at}, true, nil
}

type fixedOffsetMatcher struct {
	phrase string
	offset time.Duration
}

// FixedOffsetMatcher recognizes a literal phrase meaning "now + offset"
func FixedOffsetMatcher(phrase string, offset time.Duration) Matcher {
	return fixedOffsetMatcher{phrase: phrase, offset: offset}
}

func (f fixedOffsetMatcher) Name() string { return f.phrase }

func (f fixedOffsetMatcher) Match(expr string, _ time.Time) (Result, bool, error) {
	if !strings.Contains(expr, f.phrase) {
		return Result{}, false, nil
	}
	return Result{Kind: Relative, Offset: f.offset}, true, nil
}

// clockTime converts H, MM and an optional meridiem into a 24h time of day.
// Without a meridiem the hour is read on the 24h clock.
func clockTime(h, mm, meridiem string) (int, int, error) {
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, errorf("invalid hour %q", h)
	}

	minute := 0
	if mm != "" {
		minute, err = strconv.Atoi(mm)
		if err != nil {
			return 0, 0, errorf("invalid minute %q", mm)
		}
	}
	if minute > 59 {
		return 0, 0, errorf("minute %d is out of range", minute)
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return 0, 0, errorf("hour %d is out of range", hour)
		}
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, errorf("hour %d is out of range for %s", hour, meridiem)
		}
		if meridiem == "pm" && hour != 12 {
			hour += 12
		} else if meridiem == "am" && hour == 12 {
			hour = 0
		}
	}

	return hour, minute, nil
}

func parseAmount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n > maxAmount {
		return 0, errorf("amount %s is too large", s)
	}
	if n <= 0 {
		return 0, errorf("amount must be positive")
	}
	return n, nil
}

func unitDuration(unit string) time.Duration {
	switch unit {
	case "minute":
		return time.Minute
	case "hour":
		return time.Hour
	default:
		return 24 * time.Hour
	}
}
