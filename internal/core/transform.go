package core

// transform.go turns one CanonicalRow into a destination record.
//
// The transformer is built once per batch for a fixed adapter, mode and set
// of lookup tables. Per row it:
//  1. checks the mode's mandatory fields and identifier
//  2. coerces every mapped column according to its FieldSpec
//  3. resolves relationship references into operation blocks
//  4. enforces the adapter's schema, reporting every dropped key
//  5. derives hierarchy fields and fills schema defaults
//  6. hands the result to the adapter's ShapeFunc
//
// A ValidationError skips the row; any other error marks it as Error.

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ConsumedTarget marks a field that is read by the transformer (identifier,
// hierarchy input) but never written to values.
const ConsumedTarget = "-"

// TransformOptions configures a Transformer.
type TransformOptions struct {
	Mode         Mode
	Lookups      Lookups
	LookupPolicy LookupPolicy
	Now          time.Time // Batch clock, stamped into time-valued fields
}

// TransformResult is the output of transforming one row.
type TransformResult struct {
	Record   Record
	Warnings []string // Non-fatal problems, e.g. unresolved lookup tokens
	Dropped  []string // Canonical keys removed by schema enforcement
}

// Transformer applies one adapter definition to canonical rows.
type Transformer struct {
	def    *AdapterDefinition
	fields []FieldSpec // def.Fields with enum tokens upper-cased
	opts   TransformOptions
	mc     ModeConfig
	schema map[string]bool
	mapped map[string]bool
	shape  ShapeFunc
}

// NewTransformer validates def and prepares it for the given mode.
func NewTransformer(def *AdapterDefinition, opts TransformOptions) (*Transformer, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}

	mc, ok := def.Modes[opts.Mode]
	if !ok {
		return nil, &FatalError{
			Code:    "ADP002",
			Message: fmt.Sprintf("adapter %s does not support %s mode", def.Info.Key, opts.Mode),
			Context: map[string]any{"adapter": def.Info.Key, "modes": def.ModeNames()},
		}
	}

	t := &Transformer{
		def:    def,
		opts:   opts,
		mc:     mc,
		schema: make(map[string]bool, len(def.Schema)),
		mapped: make(map[string]bool, len(def.Fields)),
		shape:  def.Shape,
	}
	for _, name := range def.Schema {
		t.schema[name] = true
	}
	t.fields = make([]FieldSpec, len(def.Fields))
	for i, f := range def.Fields {
		t.mapped[def.canonical(f.Key)] = true
		if f.Type == FieldEnum {
			// Duplicates were rejected by ValidateDefinition.
			f.EnumValues, _ = EnumIndex(f.EnumValues)
		}
		t.fields[i] = f
	}
	if t.shape == nil {
		t.shape = EnvelopeShape
	}
	return t, nil
}

// Mode returns the batch mode.
func (t *Transformer) Mode() Mode {
	return t.opts.Mode
}

// Transform converts row into a record.
func (t *Transformer) Transform(row CanonicalRow) (TransformResult, error) {
	var res TransformResult

	if err := checkMandatory(row, t.canonicalKeys(t.mc.Mandatory)); err != nil {
		return res, err
	}

	var id string
	if t.mc.IDKey != "" {
		id, _ = row.Get(t.def.canonical(t.mc.IDKey))
		if id == "" && t.opts.Mode == ModeUpdate {
			return res, ValidationError{Field: t.mc.IDKey, Message: "missing identifier for update"}
		}
	}

	values := make(map[string]any, len(t.def.Schema))
	operations := make(map[string]OperationBlock)
	set := make(map[string]bool, len(t.def.Schema))
	var dropped []string

	put := func(key, target string, v any) {
		if !t.schema[target] {
			dropped = append(dropped, key)
			return
		}
		setPath(values, target, v)
		set[target] = true
	}

	for _, f := range t.fields {
		key := t.def.canonical(f.Key)
		raw, present := row.Get(key)

		if f.SkipIfKnown != "" && raw != "" {
			if t.opts.Lookups.Table(f.SkipIfKnown).Contains(raw) {
				return res, ValidationError{Field: key, Value: raw, Message: fmt.Sprintf("already exists in %s", f.SkipIfKnown)}
			}
		}

		if f.Target == ConsumedTarget {
			continue
		}

		if f.Type == FieldRelation {
			if !present && len(f.DefaultTokens) == 0 {
				continue
			}
			block, warnings, err := t.relation(f, key, raw)
			if err != nil {
				return res, err
			}
			res.Warnings = append(res.Warnings, warnings...)
			if f.InValues {
				put(key, f.target(), block)
			} else {
				operations[f.target()] = block
			}
			continue
		}

		if !present && f.Type != FieldEnum && f.Default == nil {
			continue
		}

		v, err := coerce(f, key, raw)
		if err != nil {
			return res, err
		}
		put(key, f.target(), v)
	}

	// Unmapped columns pass through as text when the schema allows them.
	var extra []string
	for key := range row {
		if !t.mapped[key] && key != "" {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		put(key, key, row[key])
	}

	if h := t.def.Hierarchy; h != nil {
		path, level, classification := hierarchy(h, row)
		put("hierarchy", "hierarchy", path)
		put("hierarchyLevel", "hierarchyLevel", level)
		put("classificationType", "classificationType", classification)
	}

	for _, name := range t.def.Schema {
		if set[name] {
			continue
		}
		if d, ok := t.def.Defaults[name]; ok {
			setPath(values, name, d)
		} else if t.def.FillMissing {
			setPath(values, name, "")
		}
	}

	sort.Strings(dropped)
	res.Dropped = dropped

	res.Record = t.shape(&Transformed{
		Mode:        t.opts.Mode,
		ID:          id,
		DataVersion: t.def.DataVersion,
		Values:      values,
		Operations:  operations,
		Extra:       t.mc.Extra,
		Row:         row,
		Now:         t.opts.Now,
	})
	return res, nil
}

func (t *Transformer) canonicalKeys(keys []string) []string {
	if !t.def.FoldHeaders {
		return keys
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = t.def.canonical(k)
	}
	return out
}

// relation resolves a multi-valued reference cell into an operation block.
func (t *Transformer) relation(f FieldSpec, key, raw string) (OperationBlock, []string, error) {
	res := ResolveTokens(t.opts.Lookups.Table(f.Lookup), raw, f.Separators, f.Labels)

	var warnings []string
	for _, tok := range res.Unresolved {
		if t.opts.LookupPolicy == LookupSkip {
			return nil, nil, ValidationError{Field: key, Value: tok, Message: "unresolved lookup reference " + quote(tok)}
		}
		warnings = append(warnings, fmt.Sprintf("%s: unresolved lookup reference %s", key, quote(tok)))
	}

	ids := res.IDs
	if len(ids) == 0 && len(f.DefaultTokens) > 0 {
		for _, tok := range f.DefaultTokens {
			ids = append(ids, tok)
		}
	}
	if ids == nil {
		ids = []any{}
	}

	relate, unrelate := f.verbs()
	return OperationBlock{relate: ids, unrelate: []any{}}, warnings, nil
}

// hierarchy returns "/parent/id/" (or "/id/" for roots), its depth and the
// classification type, which only roots carry.
func hierarchy(h *HierarchySpec, row CanonicalRow) (string, int, any) {
	id, _ := row.Get(h.IDKey)
	parent, _ := row.Get(h.ParentKey)

	if parent == "" {
		return "/" + id + "/", 0, h.RootType
	}
	path := "/" + parent + "/" + id + "/"
	return path, strings.Count(path, "/") - 2, nil
}

// coerce converts one cell according to its field spec.
func coerce(f FieldSpec, key, raw string) (any, error) {
	switch f.Type {
	case FieldBool:
		if raw == "" && f.Default != nil {
			return f.Default, nil
		}
		return ParseBool(raw, f.Truthy), nil

	case FieldInt:
		if raw == "" {
			return f.Default, nil
		}
		n, err := ParseInt(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s for %q: %w", fieldTypeName(f.Type), key, err)
		}
		return n, nil

	case FieldEnum:
		return ParseEnum(raw, f.EnumValues, f.EnumDefault), nil

	case FieldLocation:
		if raw == "" {
			return emptyValue(f), nil
		}
		return ParseLocation(raw), nil

	default:
		v := raw
		if f.Normalizer != nil && v != "" {
			v = f.Normalizer(v)
		}
		if v == "" {
			return emptyValue(f), nil
		}
		return v, nil
	}
}

func emptyValue(f FieldSpec) any {
	switch {
	case f.Default != nil:
		return f.Default
	case f.Nullable:
		return nil
	default:
		return ""
	}
}

// setPath stores v under a dotted path, creating nested objects.
func setPath(values map[string]any, path string, v any) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		values[path] = v
		return
	}
	child, ok := values[head].(map[string]any)
	if !ok {
		child = make(map[string]any)
		values[head] = child
	}
	setPath(child, rest, v)
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
