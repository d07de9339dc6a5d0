package core

// header.go maps a raw CSV header row onto canonical field keys.
//
// Matching is exact on the trimmed label unless the adapter folds headers, in
// which case both the declared labels and the raw labels are lower-cased
// before comparison. Unmapped columns pass through under their trimmed raw
// name so downstream whitelisting can report them.

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// byteOrderMarks are the artifacts a BOM leaves on the first header cell,
// either decoded (U+FEFF) or read as Latin-1 mojibake.
var byteOrderMarks = []string{"\ufeff", "\u00ef\u00bb\u00bf"}

// HeaderSet is the normalized header of one input file.
type HeaderSet struct {
	Keys    []string // Canonical key per raw column, same order and length
	Missing []string // Expected canonical keys absent from Keys
}

// Index returns the column position of every canonical key.
// When a key repeats, the last column wins.
func (h HeaderSet) Index() HeaderIndex {
	idx := make(HeaderIndex, len(h.Keys))
	for i, k := range h.Keys {
		idx[k] = i
	}
	return idx
}

// HeaderIndex maps canonical keys to their position in a CSV row.
type HeaderIndex map[string]int

// StripBOM removes a leading byte-order-mark artifact.
func StripBOM(s string) string {
	for _, bom := range byteOrderMarks {
		if strings.HasPrefix(s, bom) {
			return strings.TrimPrefix(s, bom)
		}
	}
	return s
}

func foldLabel(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// NormalizeHeaders maps raw header labels to canonical keys for def.
func NormalizeHeaders(raw []string, def *AdapterDefinition) HeaderSet {
	mapping := make(map[string]string, len(def.Fields))
	for _, f := range def.Fields {
		label := strings.TrimSpace(f.Label)
		key := f.Key
		if def.FoldHeaders {
			label = foldLabel(label)
			key = foldLabel(key)
		}
		mapping[label] = key
	}

	keys := make([]string, len(raw))
	for i, label := range raw {
		if i == 0 {
			label = StripBOM(label)
		}
		label = strings.TrimSpace(label)
		if def.FoldHeaders {
			label = foldLabel(label)
		}
		if key, ok := mapping[label]; ok {
			keys[i] = key
		} else {
			keys[i] = label
		}
	}

	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	var missing []string
	for _, k := range def.ExpectedKeys() {
		if !present[k] {
			missing = append(missing, k)
		}
	}

	return HeaderSet{Keys: keys, Missing: missing}
}

// ValidateHeaders applies the adapter's header policy.
// Under the strict policy missing columns are fatal; under the lenient
// policy they are returned as warnings.
func ValidateHeaders(h HeaderSet, policy HeaderPolicy) (warnings []string, err error) {
	if len(h.Missing) == 0 {
		return nil, nil
	}
	if policy == HeaderStrict {
		return nil, &FatalError{
			Code:    "HDR001",
			Message: fmt.Sprintf("missing required columns: %s", strings.Join(h.Missing, ", ")),
			Context: map[string]any{"missing": h.Missing},
		}
	}
	return []string{fmt.Sprintf("missing expected columns: %s", strings.Join(h.Missing, ", "))}, nil
}
