package core

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects insert or update semantics for a batch.
type Mode int

const (
	ModeInsert Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "insert"
	case ModeUpdate:
		return "update"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "insert" or "update" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insert", "":
		return ModeInsert, nil
	case "update":
		return ModeUpdate, nil
	default:
		return ModeInsert, fmt.Errorf("unsupported mode %q (use insert or update)", s)
	}
}

// HeaderPolicy controls what happens when expected columns are missing.
type HeaderPolicy int

const (
	// HeaderLenient logs missing columns and keeps going.
	HeaderLenient HeaderPolicy = iota
	// HeaderStrict aborts the batch before any row is processed.
	HeaderStrict
)

// LookupPolicy controls how unresolved lookup tokens affect a row.
type LookupPolicy int

const (
	// LookupWarn records a row warning; the row still succeeds.
	LookupWarn LookupPolicy = iota
	// LookupSkip skips the row when any token cannot be resolved.
	LookupSkip
)

func (p LookupPolicy) String() string {
	if p == LookupSkip {
		return "skip"
	}
	return "warn"
}

// ParseLookupPolicy parses "warn" or "skip" (case-insensitive).
func ParseLookupPolicy(s string) (LookupPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "":
		return LookupWarn, nil
	case "skip":
		return LookupSkip, nil
	default:
		return LookupWarn, fmt.Errorf("unsupported lookup policy %q (use warn or skip)", s)
	}
}

// Result is the per-row outcome classification.
type Result string

const (
	ResultSuccess Result = "Success"
	ResultSkipped Result = "Skipped"
	ResultError   Result = "Error"
)

// FieldType represents how a source column is coerced into the destination.
type FieldType int

const (
	FieldText FieldType = iota
	FieldBool
	FieldInt
	FieldEnum
	FieldLocation
	FieldRelation
)

// FieldSpec maps one source column onto a destination field.
type FieldSpec struct {
	Label      string              // Raw CSV header label
	Key        string              // Canonical key (dotted path for nested fields)
	Target     string              // Destination field, defaults to Key
	Type       FieldType           // Coercion applied to the cell
	Optional   bool                // Column may be absent without a header warning
	Normalizer func(string) string // Applied to non-empty text before coercion

	Truthy []string // FieldBool: accepted truthy tokens, defaults to DefaultTruthy

	EnumValues  map[string]any // FieldEnum: upper-cased token -> code
	EnumDefault any            // FieldEnum: code when no token matches

	Lookup        string   // FieldRelation: lookup table name
	Separators    string   // FieldRelation: token separators, defaults to ",;"
	Labels        bool     // FieldRelation: keep unresolved non-numeric tokens verbatim
	DefaultTokens []string // FieldRelation: used when the cell is empty
	Verbs         [2]string
	InValues      bool // FieldRelation: place the block inside values

	Nullable    bool   // Empty text becomes null
	Default     any    // Value used when the cell is empty
	SkipIfKnown string // Skip the row when the value is present in this lookup
}

func (f FieldSpec) target() string {
	if f.Target != "" {
		return f.Target
	}
	return f.Key
}

func (f FieldSpec) verbs() (string, string) {
	if f.Verbs[0] != "" {
		return f.Verbs[0], f.Verbs[1]
	}
	return "relate", "unrelate"
}

// ModeConfig carries the rules that differ between insert and update.
type ModeConfig struct {
	Mandatory []string       // Canonical keys that must be non-empty
	IDKey     string         // Identifier key, required and threaded into the record
	Extra     map[string]any // Constant top-level fields added to each record
}

// HierarchySpec derives a slash-delimited ancestry path for tree entities.
type HierarchySpec struct {
	IDKey     string
	ParentKey string
	RootType  any // classificationType for rows without a parent
}

// AdapterInfo contains display information about an adapter.
type AdapterInfo struct {
	Key         string // Registry key: "teams"
	Group       string // "Classifications", "Projects", "Users", ...
	Label       string // Display name
	Entity      string // Envelope adapter_key tag, defaults to Key
	Description string
}

// AdapterKey returns the destination entity tag written into the envelope.
func (i AdapterInfo) AdapterKey() string {
	if i.Entity != "" {
		return i.Entity
	}
	return i.Key
}

// LookupSource describes an auxiliary CSV file providing label -> id pairs.
type LookupSource struct {
	Name        string // Name referenced by FieldSpec.Lookup
	Path        string // Default path, overridable by profile or flag
	LabelColumn string // Header of the label column
	IDColumn    string // Header of the id column, empty for presence sets
	Fold        bool   // Lower-case labels at load and resolve time
}

// AdapterDefinition contains everything needed to migrate one entity type.
type AdapterDefinition struct {
	Info         AdapterInfo
	Fields       []FieldSpec
	HeaderPolicy HeaderPolicy
	FoldHeaders  bool // Match header labels case-insensitively

	Schema      []string       // Allowed destination value names, in output order
	Defaults    map[string]any // Values used when a schema field is absent
	FillMissing bool           // Absent schema fields become Defaults[name] or ""

	DataVersion *int
	Modes       map[Mode]ModeConfig
	Hierarchy   *HierarchySpec
	Identify    []string // Canonical keys echoed into the audit trail
	Lookups     []LookupSource
	Shape       ShapeFunc
}

// ExpectedKeys returns the canonical keys of every non-optional field.
func (d *AdapterDefinition) ExpectedKeys() []string {
	keys := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if !f.Optional {
			keys = append(keys, d.canonical(f.Key))
		}
	}
	return keys
}

// Labels returns the raw header labels in declaration order.
func (d *AdapterDefinition) Labels() []string {
	labels := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		labels = append(labels, f.Label)
	}
	return labels
}

// SupportsMode reports whether the adapter declares the mode.
func (d *AdapterDefinition) SupportsMode(m Mode) bool {
	_, ok := d.Modes[m]
	return ok
}

// DefaultMode is insert when supported, otherwise update.
func (d *AdapterDefinition) DefaultMode() Mode {
	if d.SupportsMode(ModeInsert) {
		return ModeInsert
	}
	return ModeUpdate
}

// ResolveMode parses s, falling back to DefaultMode when s is empty.
func (d *AdapterDefinition) ResolveMode(s string) (Mode, error) {
	if strings.TrimSpace(s) == "" {
		return d.DefaultMode(), nil
	}
	return ParseMode(s)
}

// ModeNames returns the supported modes in insert, update order.
func (d *AdapterDefinition) ModeNames() []string {
	var names []string
	for _, m := range []Mode{ModeInsert, ModeUpdate} {
		if d.SupportsMode(m) {
			names = append(names, m.String())
		}
	}
	return names
}

func (d *AdapterDefinition) canonical(key string) string {
	if d.FoldHeaders {
		return foldLabel(key)
	}
	return key
}

// CanonicalRow maps canonical keys to trimmed cell values for one data line.
type CanonicalRow map[string]string

// Get returns the trimmed value for key and whether the column exists.
func (r CanonicalRow) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Record is one transformed output object.
type Record map[string]any

// OperationBlock is a relationship-operation pair for the destination API.
type OperationBlock map[string][]any

// Transformed is the intermediate result handed to a ShapeFunc.
type Transformed struct {
	Mode        Mode
	ID          string
	DataVersion *int
	Values      map[string]any
	Operations  map[string]OperationBlock
	Extra       map[string]any
	Row         CanonicalRow
	Now         time.Time
}

// ShapeFunc assembles the final record from a transformed row.
type ShapeFunc func(t *Transformed) Record

// Point is the structured form of a "latitude,longitude" cell.
type Point struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Type      string `json:"type"`
}

// RowOutcome is the audit entry for one input data line.
type RowOutcome struct {
	RowIndex int               `json:"rowIndex"`
	Result   Result            `json:"result"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Dropped  []string          `json:"dropped,omitempty"`
}

// Summary holds the aggregate counts written to the summary file.
type Summary struct {
	RecordCount  int       `json:"recordCount"`
	SuccessCount int       `json:"successCount"`
	SkippedCount int       `json:"skippedCount"`
	ErrorCount   int       `json:"errorCount"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Payload is the envelope written to stdout.
type Payload struct {
	RecordCount int      `json:"recordCount"`
	GeneratedAt string   `json:"generatedAt"`
	AdapterKey  string   `json:"adapter_key"`
	Records     []Record `json:"records"`
}

// BatchResult contains everything produced by one pipeline run.
type BatchResult struct {
	AdapterKey  string
	Mode        Mode
	GeneratedAt time.Time
	Records     []Record
	Outcomes    []RowOutcome
	Identify    []string // Echo columns, in audit order
	Warnings    []string // Batch-level warnings (headers, lookups)
	Summary     Summary
}

// RecordCount returns len(Records).
func (b *BatchResult) RecordCount() int {
	return len(b.Records)
}

// Payload builds the output envelope.
func (b *BatchResult) Payload() Payload {
	records := b.Records
	if records == nil {
		records = []Record{}
	}
	return Payload{
		RecordCount: len(records),
		GeneratedAt: b.GeneratedAt.Format(time.RFC3339),
		AdapterKey:  b.AdapterKey,
		Records:     records,
	}
}
