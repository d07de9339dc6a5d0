package core

// validation.go holds the row-level skip reasons and the checks run on an
// adapter definition before any row is transformed.
//
// Validation happens at two levels:
//  1. Definition validation: the declared schema, mode rules and lookups are
//     consistent (done once, when the transformer is built)
//  2. Row validation: mandatory fields and the update-mode identifier are
//     present (done per row; a failure skips the row)

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is an expected data-quality problem. Rows failing with a
// ValidationError are Skipped; any other error marks the row as Error.
type ValidationError struct {
	Field   string // Canonical key
	Value   string // The offending value, if any
	Message string // Human-readable reason
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsSkip reports whether err classifies a row as Skipped.
func IsSkip(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// checkMandatory returns a ValidationError for the first empty mandatory key.
func checkMandatory(row CanonicalRow, keys []string) error {
	for _, k := range keys {
		if v, _ := row.Get(k); strings.TrimSpace(v) == "" {
			return ValidationError{Field: k, Message: "missing mandatory field"}
		}
	}
	return nil
}

// ValidateDefinition checks an adapter definition for internal consistency.
// It returns every problem found.
func ValidateDefinition(def *AdapterDefinition) error {
	var errs []string

	if def.Info.Key == "" {
		errs = append(errs, "adapter key is required")
	}
	if len(def.Modes) == 0 {
		errs = append(errs, "at least one mode is required")
	}

	mapped := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		key := def.canonical(f.Key)
		if mapped[key] {
			errs = append(errs, fmt.Sprintf("canonical key %q mapped twice", key))
		}
		mapped[key] = true
	}

	inSchema := make(map[string]bool, len(def.Schema))
	for _, name := range def.Schema {
		if inSchema[name] {
			errs = append(errs, fmt.Sprintf("schema field %q declared twice", name))
		}
		inSchema[name] = true
	}
	for name := range def.Defaults {
		if !inSchema[name] {
			errs = append(errs, fmt.Sprintf("default for %q is not in the schema", name))
		}
	}

	declared := make(map[string]bool, len(def.Lookups))
	for _, src := range def.Lookups {
		declared[src.Name] = true
	}
	for _, f := range def.Fields {
		if f.Lookup != "" && !declared[f.Lookup] {
			errs = append(errs, fmt.Sprintf("field %q uses undeclared lookup %q", f.Key, f.Lookup))
		}
		if f.SkipIfKnown != "" && !declared[f.SkipIfKnown] {
			errs = append(errs, fmt.Sprintf("field %q uses undeclared lookup %q", f.Key, f.SkipIfKnown))
		}
		if f.Type == FieldEnum {
			if _, err := EnumIndex(f.EnumValues); err != nil {
				errs = append(errs, fmt.Sprintf("field %q: %v", f.Key, err))
			}
		}
		if f.Type == FieldRelation && f.InValues && !inSchema[f.target()] {
			errs = append(errs, fmt.Sprintf("relation %q is placed in values but not in the schema", f.target()))
		}
	}

	for mode, mc := range def.Modes {
		for _, k := range mc.Mandatory {
			if !mapped[def.canonical(k)] {
				errs = append(errs, fmt.Sprintf("%s mode: mandatory key %q is not mapped", mode, k))
			}
		}
		if mc.IDKey != "" && !mapped[def.canonical(mc.IDKey)] {
			errs = append(errs, fmt.Sprintf("%s mode: id key %q is not mapped", mode, mc.IDKey))
		}
	}

	if h := def.Hierarchy; h != nil {
		if !mapped[h.IDKey] || !mapped[h.ParentKey] {
			errs = append(errs, "hierarchy keys must be mapped")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("adapter %q: %s", def.Info.Key, strings.Join(errs, "; "))
	}
	return nil
}

// fieldTypeName returns a human-readable name for a field type.
func fieldTypeName(ft FieldType) string {
	switch ft {
	case FieldText:
		return "text"
	case FieldBool:
		return "bool"
	case FieldInt:
		return "integer"
	case FieldEnum:
		return "enum"
	case FieldLocation:
		return "location"
	case FieldRelation:
		return "relation"
	default:
		return "value"
	}
}
