package payment

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// isoMillis is the output layout for parsed datetimes. It keeps the
// original offset instead of converting to UTC.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// DateStrategy tries to turn a trimmed string into an ISO-8601 date or datetime.
type DateStrategy func(s string) (string, bool)

// DateStrategies are tried in order by ParseDate; the first match wins.
var DateStrategies = []DateStrategy{
	parseDayMonthYear,
	parseRFC3339,
	parseISODate,
	parseAny,
}

var (
	n8nDateTime = regexp.MustCompile(`\[DateTime:\s*(.+?)\]`)
	dayMonthYr  = regexp.MustCompile(`^(\d{2})[-/](\d{2})[-/](\d{4})$`)
)

// ParseDate normalizes a raw JSON value into an ISO-8601 string.
// Non-string and blank values are rejected immediately. An n8n
// "[DateTime: ...]" wrapper is unwrapped before the strategies run.
func ParseDate(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if m := n8nDateTime.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	for _, try := range DateStrategies {
		if out, ok := try(s); ok {
			return out, true
		}
	}
	return "", false
}

// parseDayMonthYear reorders DD-MM-YYYY and DD/MM/YYYY into YYYY-MM-DD.
// Day and month are not range-checked: "13-13-2026" yields "2026-13-13",
// which the store later rejects.
func parseDayMonthYear(s string) (string, bool) {
	m := dayMonthYr.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[3] + "-" + m[2] + "-" + m[1], true
}

func parseRFC3339(s string) (string, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", false
	}
	return t.Format(isoMillis), true
}

func parseISODate(s string) (string, bool) {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", false
	}
	return s, true
}

// parseAny is the catch-all for the remaining layouts n8n and Asaas emit
// ("2026-02-14 10:30:00", "Feb 14 2026", unix seconds, ...).
func parseAny(s string) (string, bool) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", false
	}
	return t.Format(isoMillis), true
}
