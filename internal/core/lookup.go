package core

// lookup.go resolves free-text references (project, team and role labels)
// into destination identifiers.
//
// Tables are loaded once before any row is processed and are read-only
// afterwards, so a Lookups value can be shared freely between rows and tests.

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultSeparators split multi-valued reference cells.
const DefaultSeparators = ",;"

// LookupTable maps a label to an identifier.
type LookupTable struct {
	name    string
	fold    bool
	entries map[string]string
}

// NewLookupTable builds a table from label -> id pairs.
// Labels are trimmed, and lower-cased when fold is set.
func NewLookupTable(name string, fold bool, pairs map[string]string) *LookupTable {
	t := &LookupTable{name: name, fold: fold, entries: make(map[string]string, len(pairs))}
	for label, id := range pairs {
		t.set(label, id)
	}
	return t
}

func (t *LookupTable) key(label string) string {
	label = strings.TrimSpace(label)
	if t.fold {
		label = foldLabel(label)
	}
	return label
}

// set stores a pair and reports whether the label was already present.
func (t *LookupTable) set(label, id string) bool {
	k := t.key(label)
	_, dup := t.entries[k]
	t.entries[k] = strings.TrimSpace(id)
	return dup
}

// Name returns the table name.
func (t *LookupTable) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Len returns the number of labels.
func (t *LookupTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Resolve returns the identifier stored for label.
// A nil table always misses.
func (t *LookupTable) Resolve(label string) (string, bool) {
	if t == nil {
		return "", false
	}
	id, ok := t.entries[t.key(label)]
	return id, ok
}

// Contains reports whether label is present.
func (t *LookupTable) Contains(label string) bool {
	_, ok := t.Resolve(label)
	return ok
}

// Labels returns all labels in sorted order.
func (t *LookupTable) Labels() []string {
	if t == nil {
		return nil
	}
	labels := make([]string, 0, len(t.entries))
	for l := range t.entries {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Lookups is the set of tables available to one batch, keyed by name.
type Lookups map[string]*LookupTable

// Table returns the named table or nil.
func (l Lookups) Table(name string) *LookupTable {
	if l == nil {
		return nil
	}
	return l[name]
}

// Resolution is the result of resolving one multi-valued cell.
type Resolution struct {
	IDs        []any    // Resolved identifiers, de-duplicated, first-seen order
	Unresolved []string // Tokens that neither parsed nor matched
}

// ResolveTokens splits label on separators and resolves every token.
//
// Numeric tokens pass through as integer identifiers without a lookup.
// Other tokens are looked up in table; when keepLabels is set a miss keeps
// the token verbatim instead of reporting it as unresolved.
func ResolveTokens(table *LookupTable, label, separators string, keepLabels bool) Resolution {
	if separators == "" {
		separators = DefaultSeparators
	}
	tokens := strings.FieldsFunc(label, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})

	var res Resolution
	seen := make(map[any]bool, len(tokens))
	add := func(id any) {
		if seen[id] {
			return
		}
		seen[id] = true
		res.IDs = append(res.IDs, id)
	}

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			add(n)
			continue
		}
		if id, ok := table.Resolve(tok); ok {
			add(toIdentifier(id))
			continue
		}
		if keepLabels {
			add(tok)
			continue
		}
		res.Unresolved = append(res.Unresolved, tok)
	}
	return res
}

// toIdentifier returns id as an int64 when it is numeric.
func toIdentifier(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
