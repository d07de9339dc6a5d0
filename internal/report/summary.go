package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

// SummaryHeader is the header of the summary file.
var SummaryHeader = []string{"recordCount", "successCount", "skippedCount", "errorCount", "generatedAt"}

// WriteSummary writes the aggregate counts as a two-line CSV.
func WriteSummary(w io.Writer, s core.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	if err := cw.Write([]string{
		strconv.Itoa(s.RecordCount),
		strconv.Itoa(s.SuccessCount),
		strconv.Itoa(s.SkippedCount),
		strconv.Itoa(s.ErrorCount),
		s.GeneratedAt.Format(time.RFC3339),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
