package adapters

import (
	"strings"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

// dateTimeLayout is the destination's second-precision timestamp format.
const dateTimeLayout = "2006-01-02T15:04:05"

// FlagTruthy lists the tokens the destination treats as a true flag.
var FlagTruthy = []string{"1", "true", "on", "yes"}

// HeaderFlag maps the classification "header" column onto classificationType.
var HeaderFlag = map[string]any{"TRUE": 1}

// NormalizeName trims a display name and removes the characters the
// destination uses as path separators.
func NormalizeName(s string) string {
	return strings.TrimSpace(core.SanitizeName(s))
}
