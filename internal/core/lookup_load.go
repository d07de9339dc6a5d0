package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadLookupTable reads a lookup source from disk.
//
// A missing file is not an error: the returned table is empty and a warning
// is reported, so every lookup simply misses. Duplicate labels are reported
// as warnings and the last occurrence wins.
func LoadLookupTable(src LookupSource) (*LookupTable, []string, error) {
	table := NewLookupTable(src.Name, src.Fold, nil)

	if strings.TrimSpace(src.Path) == "" {
		return table, []string{fmt.Sprintf("lookup %q: no source configured", src.Name)}, nil
	}

	f, err := os.Open(src.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return table, []string{fmt.Sprintf("lookup %q: file not found: %s", src.Name, src.Path)}, nil
		}
		return nil, nil, &FatalError{
			Code:    "LKP001",
			Message: fmt.Sprintf("lookup source unreadable: %v", err),
			Context: map[string]any{"lookup": src.Name, "path": src.Path},
		}
	}
	defer f.Close()

	warnings, err := ReadLookupTable(f, src, table)
	if err != nil {
		return nil, nil, &FatalError{
			Code:    "LKP001",
			Message: fmt.Sprintf("lookup source unreadable: %v", err),
			Context: map[string]any{"lookup": src.Name, "path": src.Path},
		}
	}
	return table, warnings, nil
}

// ReadLookupTable fills table from CSV data.
//
// The label and id columns are located by header name (case-insensitive).
// When the header does not name them the file is read positionally as
// id,label with no header row. A source without an IDColumn builds a
// presence set keyed by LabelColumn.
func ReadLookupTable(r io.Reader, src LookupSource, table *LookupTable) ([]string, error) {
	reader := csv.NewReader(DecodeInput(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse lookup csv: %w", err)
	}
	if len(rows) == 0 {
		return []string{fmt.Sprintf("lookup %q: source is empty", src.Name)}, nil
	}

	labelCol, idCol := -1, -1
	header := rows[0]
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = StripBOM(h)
		}
		if src.LabelColumn != "" && strings.EqualFold(h, src.LabelColumn) {
			labelCol = i
		}
		if src.IDColumn != "" && strings.EqualFold(h, src.IDColumn) {
			idCol = i
		}
	}

	data, lineOffset := rows[1:], 2
	switch {
	case labelCol >= 0 && (src.IDColumn == "" || idCol >= 0):
	case src.IDColumn == "":
		return []string{fmt.Sprintf("lookup %q: column %q not found", src.Name, src.LabelColumn)}, nil
	default:
		// Headerless id,label file.
		idCol, labelCol = 0, 1
		data, lineOffset = rows, 1
	}

	var warnings []string
	for i, row := range data {
		if labelCol >= len(row) || (idCol >= 0 && idCol >= len(row)) {
			continue
		}
		label := CleanCell(row[labelCol])
		if label == "" {
			continue
		}
		id := label
		if idCol >= 0 {
			id = CleanCell(row[idCol])
		}
		if table.set(label, id) {
			warnings = append(warnings, fmt.Sprintf("lookup %q: duplicate label %q on line %d, last value wins", src.Name, label, i+lineOffset))
		}
	}
	return warnings, nil
}

// LoadLookups loads every declared source, applying path overrides by name.
func LoadLookups(sources []LookupSource, overrides map[string]string) (Lookups, []string, error) {
	lookups := make(Lookups, len(sources))
	var warnings []string
	for _, src := range sources {
		if p, ok := overrides[src.Name]; ok && p != "" {
			src.Path = p
		}
		table, w, err := LoadLookupTable(src)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		lookups[src.Name] = table
	}
	return lookups, warnings, nil
}
