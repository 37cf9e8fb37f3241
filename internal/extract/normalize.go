package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02Z07:00",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
}

var embeddedDate = regexp.MustCompile(
	`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?` +
		`|\d{4}-\d{2}-\d{2}(?:Z|[+-]\d{2}:\d{2})?` +
		`|\d{2}\.\d{2}\.\d{4}` +
		`|\d{2}/\d{2}/\d{4}`,
)

var plainDecimal = regexp.MustCompile(`^\d+(\.\d+)?$`)

// NormalizeDate returns the date literal found in text, or "" when text holds
// no valid date. The whole trimmed string is tried against the known layouts
// first, then the first valid date embedded in prose is returned.
func NormalizeDate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if validDate(text) {
		return text
	}
	for _, candidate := range embeddedDate.FindAllString(text, -1) {
		if validDate(candidate) {
			return candidate
		}
	}
	return ""
}

func validDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// NormalizePrice keeps digits and decimal separators, drops whitespace used as
// thousands separators and converts a decimal comma to a dot. Anything that
// is not a plain unsigned decimal afterwards yields "".
func NormalizePrice(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteByte('.')
		case unicode.IsSpace(r):
		}
	}
	out := b.String()
	if !plainDecimal.MatchString(out) {
		return ""
	}
	return out
}

func parseFloat(text string) *float64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(text string) *int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseBool(text string) *bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v, err := strconv.ParseBool(text)
	if err != nil {
		return nil
	}
	return &v
}
