package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

// AuditHeader returns the audit log header for the given echo columns.
func AuditHeader(identify []string) []string {
	header := make([]string, 0, len(identify)+3)
	header = append(header, "rowIndex")
	header = append(header, identify...)
	return append(header, "message", "result")
}

// WriteAuditLog writes one line per input data line, in input order.
func WriteAuditLog(w io.Writer, result *core.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AuditHeader(result.Identify)); err != nil {
		return err
	}

	for _, o := range result.Outcomes {
		line := make([]string, 0, len(result.Identify)+3)
		line = append(line, strconv.Itoa(o.RowIndex))
		for _, k := range result.Identify {
			line = append(line, o.Fields[k])
		}
		line = append(line, o.Message, string(o.Result))
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
