package core

import (
	"fmt"
	"strings"
)

// MessageMismatchedColumns is the skip reason for rows whose field count
// differs from the header.
const MessageMismatchedColumns = "mismatched column count"

// RowIndex converts a zero-based data-line position into the 1-based file
// line number, counting the header as line 1.
func RowIndex(i int) int {
	return i + 2
}

// echoFields copies the identifying columns of row for the audit trail.
func echoFields(row CanonicalRow, identify []string) map[string]string {
	if len(identify) == 0 {
		return nil
	}
	fields := make(map[string]string, len(identify))
	for _, k := range identify {
		fields[k] = row[k]
	}
	return fields
}

// Classify turns a transform result into the row's audit entry.
// A ValidationError is Skipped, any other error is Error, otherwise Success.
func Classify(rowIndex int, row CanonicalRow, identify []string, res TransformResult, err error) RowOutcome {
	out := RowOutcome{
		RowIndex: rowIndex,
		Fields:   echoFields(row, identify),
	}

	switch {
	case err == nil:
		out.Result = ResultSuccess
		out.Warnings = res.Warnings
		out.Dropped = res.Dropped
		out.Message = successMessage(res)
	case IsSkip(err):
		out.Result = ResultSkipped
		out.Message = err.Error()
	default:
		out.Result = ResultError
		out.Message = err.Error()
	}
	return out
}

// Mismatched returns the Skipped outcome for a row whose field count differs
// from the header keys. Identify columns present in fields are echoed; the
// rest are blank.
func Mismatched(rowIndex int, fields, keys, identify []string) RowOutcome {
	row := make(CanonicalRow, len(keys))
	for j, key := range keys {
		if j < len(fields) {
			row[key] = CleanCell(fields[j])
		}
	}
	return RowOutcome{
		RowIndex: rowIndex,
		Result:   ResultSkipped,
		Message:  MessageMismatchedColumns,
		Fields:   echoFields(row, identify),
		Warnings: []string{fmt.Sprintf("expected %d columns, got %d", len(keys), len(fields))},
	}
}

func successMessage(res TransformResult) string {
	parts := append([]string(nil), res.Warnings...)
	if len(res.Dropped) > 0 {
		parts = append(parts, "dropped fields: "+strings.Join(res.Dropped, ", "))
	}
	return strings.Join(parts, "; ")
}
