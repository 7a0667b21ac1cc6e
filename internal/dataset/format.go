package dataset

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Invalid marks a field whose raw value could not be parsed. The record is
// kept; the validator decides whether the field mattered.
const Invalid = "#INVALIDO#"

// Date shapes accepted on input. Output is always DD/MM/YYYY, with the time
// suffix preserved when the input carried one.
var (
	dateLayouts = []string{
		"02/01/2006",
		"2006-01-02",
		"02-01-2006",
		"20060102",
		"02/01/2006 15:04:05",
		"2006-01-02 15:04:05",
		"02/01/2006 15:04",
		"2006-01-02T15:04:05",
	}
	timedLayouts = map[string]bool{
		"02/01/2006 15:04:05": true,
		"2006-01-02 15:04:05": true,
		"02/01/2006 15:04":    true,
		"2006-01-02T15:04:05": true,
	}
)

// CleanText trims surrounding whitespace, treating the usual null spellings
// from upstream exports as empty.
func CleanText(s string) string {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "nan", "none", "null":
		return ""
	}
	return t
}

// NormalizeDate parses a date in any accepted shape and renders it as
// DD/MM/YYYY, appending HH:MM:SS when the input carried a time component.
// Returns Invalid for unparseable input and "" for empty input.
func NormalizeDate(s string) string {
	t := CleanText(s)
	if t == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, t)
		if err != nil {
			continue
		}
		if timedLayouts[layout] {
			return parsed.Format("02/01/2006 15:04:05")
		}
		return parsed.Format("02/01/2006")
	}
	return Invalid
}

// NormalizeCurrency converts Brazilian or plain decimal currency text into a
// canonical value with '.' as the decimal separator and two places. Currency
// symbols, spaces and thousands separators are stripped. Returns Invalid for
// unparseable input and "" for empty input.
func NormalizeCurrency(s string) string {
	t := CleanText(s)
	if t == "" {
		return ""
	}
	t = strings.NewReplacer(
		"R$", "",
		" ", "",
		"\u00a0", "",
		"\u202f", "",
		"\t", "",
	).Replace(t)

	switch {
	case strings.Contains(t, ",") && strings.Contains(t, "."):
		// 1.234,56 -> 1234.56
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	case strings.Contains(t, ","):
		t = strings.ReplaceAll(t, ",", ".")
	case strings.Count(t, ".") > 1:
		// 1.234.567 is thousands-only notation
		t = strings.ReplaceAll(t, ".", "")
	}

	d, err := decimal.NewFromString(t)
	if err != nil {
		return Invalid
	}
	return d.StringFixed(2)
}

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePostal reduces a postal code to digits at the expected length.
// Shorter values are left-padded with zeros, since numeric exports drop
// leading zeros. Returns Invalid when the digits exceed the length and ""
// for empty input.
func NormalizePostal(s string, length int) string {
	t := CleanText(s)
	if t == "" {
		return ""
	}
	digits := DigitsOnly(t)
	if len(digits) > length || len(digits) == 0 {
		return Invalid
	}
	return strings.Repeat("0", length-len(digits)) + digits
}

// NormalizeBool maps boolean-like text to "true"/"false". Returns Invalid
// for unrecognized input and "" for empty input.
func NormalizeBool(s string) string {
	t := CleanText(s)
	if t == "" {
		return ""
	}
	switch ASCIIUpper(t) {
	case "1", "TRUE", "SIM", "S", "Y", "YES", "VERDADEIRO":
		return "true"
	case "0", "FALSE", "NAO", "N", "NO", "FALSO":
		return "false"
	}
	return Invalid
}

var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ASCIIUpper removes accents, uppercases and trims, for accent-insensitive
// comparison of free text.
func ASCIIUpper(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}
