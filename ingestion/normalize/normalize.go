// Package normalize holds the leaf field helpers every vendor
// transformer leans on: identifier validation, numeric parsing with
// accounting-style negatives, and date/quarter helpers.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	eanPattern        = regexp.MustCompile(`^\d{13}$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// IsValidEAN reports whether s is a 13-digit numeric product identifier.
func IsValidEAN(s string) bool {
	return eanPattern.MatchString(strings.TrimSpace(s))
}

// NormalizeCode canonicalizes a reseller product code or name: trimmed,
// lowercased, runs of whitespace collapsed to one space.
func NormalizeCode(s string) string {
	return whitespacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// ParseAmount parses a monetary value, honouring accounting notation:
// a parenthesized value is negated before numeric parsing, so "(123.45)"
// yields -123.45. Thousands separators are tolerated.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.ReplaceAll(s, ",", "")

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative {
		value = value.Neg()
	}
	return value, nil
}

// ParseQuantity parses a signed integer quantity, honouring the same
// accounting notation as ParseAmount: "(3)" yields -3.
func ParseQuantity(raw string) (int, error) {
	value, err := ParseAmount(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	if !value.IsInteger() {
		return 0, fmt.Errorf("quantity %q is not a whole number", raw)
	}
	return int(value.IntPart()), nil
}

// dateLayouts are tried in order; resellers are inconsistent about
// which convention they export in.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// ParseDate parses a sale date from any of the known reseller layouts,
// falling back to an Excel serial day number.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// Excel stores dates as serial day counts from 1899-12-30.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return epoch.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// QuarterOf returns the calendar quarter (1-4) for a month (1-12).
func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

// DateParts splits a sale date into the year/month/quarter columns the
// fact table denormalizes.
func DateParts(t time.Time) (year, month, quarter int) {
	year = t.Year()
	month = int(t.Month())
	quarter = QuarterOf(month)
	return year, month, quarter
}
