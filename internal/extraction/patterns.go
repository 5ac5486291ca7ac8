package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// fieldPattern captures a free-text field value from a single line.
type fieldPattern struct {
	name string
	re   *regexp.Regexp
}

// match returns the trimmed first capture group, or false when the pattern does not match or
// captures only whitespace.
func (p fieldPattern) match(text string) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return "", false
	}
	return value, true
}

// datePattern recognizes one date phrasing and knows how to turn its groups into a date.
type datePattern struct {
	name  string
	re    *regexp.Regexp
	parse func(groups []string) (time.Time, error)
}

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// Title patterns, in priority order. Label and value must share a line.
var titlePatterns = []fieldPattern{
	{name: "certificate_of", re: regexp.MustCompile(`(?i)certificate[ \t]+of[ \t]+(\S[^\r\n]*)`)},
	{name: "certificate_in", re: regexp.MustCompile(`(?i)certificate[ \t]+in[ \t]+(\S[^\r\n]*)`)},
	{name: "certification_in", re: regexp.MustCompile(`(?i)certification[ \t]+in[ \t]+(\S[^\r\n]*)`)},
	{name: "certify_in", re: regexp.MustCompile(`(?i)this[ \t]+is[ \t]+to[ \t]+certify\b[^\r\n]*?[ \t]+in[ \t]+(\S[^\r\n]*)`)},
}

// Issuer patterns, in priority order. A captured value never starts with a colon.
var issuerPatterns = []fieldPattern{
	{name: "issued_by", re: regexp.MustCompile(`(?i)issued[ \t]+by(?:[ \t]*:)?[ \t]*([^:\s][^\r\n]*)`)},
	{name: "awarded_by", re: regexp.MustCompile(`(?i)awarded[ \t]+by(?:[ \t]*:)?[ \t]*([^:\s][^\r\n]*)`)},
	{name: "from", re: regexp.MustCompile(`(?i)\bfrom[ \t]*:[ \t]*([^:\s][^\r\n]*)`)},
	{name: "by", re: regexp.MustCompile(`(?i)\bby[ \t]*:[ \t]*([a-z][a-z .,&'-]*)`)},
}

// Date patterns, in priority order. Numeric dates are read day first.
var datePatterns = []datePattern{
	{
		name:  "numeric",
		re:    regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`),
		parse: parseDayMonthYear,
	},
	{
		name:  "day_month_year",
		re:    regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[ \t]+(?:of[ \t]+)?` + monthNames + `\.?,?[ \t]+(\d{4})\b`),
		parse: func(g []string) (time.Time, error) { return parseNamed(g[3], g[2], g[1]) },
	},
	{
		name:  "month_day_year",
		re:    regexp.MustCompile(`(?i)\b` + monthNames + `\.?[ \t]+(\d{1,2})(?:st|nd|rd|th)?,?[ \t]+(\d{4})\b`),
		parse: func(g []string) (time.Time, error) { return parseNamed(g[3], g[1], g[2]) },
	},
	{
		name:  "date_label",
		re:    regexp.MustCompile(`(?i)\bdate[ \t]*:[ \t]*(\d{1,2})[/.-](\d{1,2})[/.-](\d{2,4})\b`),
		parse: parseDayMonthYear,
	},
}

// firstField runs a pattern cascade and returns the first non-empty capture.
func firstField(text string, patterns []fieldPattern) (string, string, bool) {
	for _, p := range patterns {
		if value, ok := p.match(text); ok {
			return value, p.name, true
		}
	}
	return "", "", false
}

func parseDayMonthYear(g []string) (time.Time, error) {
	day, err := strconv.Atoi(g[1])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(g[2])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(g[3])
	if err != nil {
		return time.Time{}, err
	}
	if len(g[3]) == 2 {
		year += 2000
	} else if len(g[3]) != 4 {
		return time.Time{}, fmt.Errorf("unsupported year %q", g[3])
	}
	return calendarDate(year, month, day)
}

func parseNamed(yearStr, monthStr, dayStr string) (time.Time, error) {
	month, ok := monthNumber(monthStr)
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q", monthStr)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, err
	}
	return calendarDate(year, month, day)
}

func monthNumber(name string) (int, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	months := map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}
	m, ok := months[name[:3]]
	return m, ok
}

// calendarDate rejects values that time.Date would silently normalize, such as 31 February.
func calendarDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%04d-%02d-%02d is not a calendar date", year, month, day)
	}
	return t, nil
}
