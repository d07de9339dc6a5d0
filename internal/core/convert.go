package core

// convert.go provides the cell coercions used by the row transformer.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Excel formula prefixes (="value")
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Thousands separators in integers
//   - "lat,long" coordinate pairs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// integerRegex validates an integer after thousands separators are removed.
var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// disallowedNameChars matches characters the destination rejects in names.
var disallowedNameChars = regexp.MustCompile(`[/:;]`)

// DefaultTruthy lists the tokens accepted as true when a field declares none.
var DefaultTruthy = []string{"true", "t", "yes", "y", "1", "on"}

// CleanCell trims whitespace and unwraps the Excel text-formula form
// (="..."). Quotes that survived CSV decoding are part of the value.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}

	return s
}

// ParseBool reports whether s matches one of the truthy tokens
// (case-insensitive). Anything else, including empty, is false.
func ParseBool(s string, truthy []string) bool {
	if len(truthy) == 0 {
		truthy = DefaultTruthy
	}
	s = strings.TrimSpace(s)
	for _, t := range truthy {
		if strings.EqualFold(s, t) {
			return true
		}
	}
	return false
}

// ParseInt converts s to an integer, tolerating thousands separators.
func ParseInt(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if !integerRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return n, nil
}

// ParseEnum returns the code for s from values, or def when s is not a
// token. values must be keyed by upper-case tokens (see EnumIndex).
func ParseEnum(s string, values map[string]any, def any) any {
	if code, ok := values[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return code
	}
	return def
}

// EnumIndex upper-cases the tokens of values. It fails when two tokens
// differ only by case.
func EnumIndex(values map[string]any) (map[string]any, error) {
	index := make(map[string]any, len(values))
	for token, code := range values {
		key := strings.ToUpper(strings.TrimSpace(token))
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("enum token %q declared twice", key)
		}
		index[key] = code
	}
	return index, nil
}

// ParseLocation splits "latitude,longitude" into a Point.
// Without a comma the raw string is returned unchanged.
func ParseLocation(s string) any {
	lat, long, ok := strings.Cut(s, ",")
	if !ok {
		return s
	}
	return Point{
		Latitude:  strings.TrimSpace(lat),
		Longitude: strings.TrimSpace(long),
		Type:      "Point",
	}
}

// SanitizeName removes path-separator-like characters (/ : ;).
func SanitizeName(s string) string {
	return disallowedNameChars.ReplaceAllString(s, "")
}

// LowerEmail lower-cases and trims an e-mail address.
func LowerEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UpperFirst upper-cases the first letter and leaves the rest untouched.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
