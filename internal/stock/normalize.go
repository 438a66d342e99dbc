// Package stock ingests historical share prices scraped from BSE and
// proxies live quotes from a third-party API.
package stock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a value matches no known date layout.
var ErrInvalidDate = errors.New("invalid date")

var nonLetters = regexp.MustCompile(`[^A-Z]+`)

// NormalizeHeader uppercases s and strips every non-letter, so
// "No. of Trades" and "NO_OF_TRADES" both become "NOOFTRADES".
func NormalizeHeader(s string) string {
	return nonLetters.ReplaceAllString(strings.ToUpper(s), "")
}

var dateLayouts = []string{
	"2006-01-02",
	"2-Jan-2006",
	"2-January-2006",
	"2-Jan-06",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006/01/02",
	time.RFC3339,
}

// ParseDate parses the date forms used by BSE and NSE exports and returns
// the calendar day at midnight UTC.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.Join(strings.Fields(value), " ")
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

var numberNoise = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "₹", "", "Rs.", "", "%", "")

// ParseNumber parses a formatted number such as "1,234.50" or "₹ 98.2".
// A blank value or a lone dash is zero.
func ParseNumber(value string) (float64, error) {
	cleaned := numberNoise.Replace(strings.TrimSpace(value))
	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return n, nil
}
