// Package report writes the side files of a finished migration batch:
// the per-row audit log, the summary counts and the payload JSON.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

// TimestampLayout is the batch timestamp embedded in side file names.
const TimestampLayout = "20060102_150405"

// File kinds returned by Writer.Write.
const (
	KindLog     = "log"
	KindSummary = "summary"
	KindPayload = "payload"
)

// Writer writes side files under Dir. It implements core.ReportWriter.
type Writer struct {
	Dir     string
	Payload bool // Also write the payload JSON file
}

var _ core.ReportWriter = (*Writer)(nil)

// NewWriter creates a writer for dir.
func NewWriter(dir string, payload bool) *Writer {
	return &Writer{Dir: dir, Payload: payload}
}

// FileName returns the side file name for one kind of output.
func FileName(kind, adapterKey, ts string) string {
	adapterKey = safeName(adapterKey)
	switch kind {
	case KindLog:
		return fmt.Sprintf("migration_log_%s_%s.csv", adapterKey, ts)
	case KindSummary:
		return fmt.Sprintf("migration_summary_%s_%s.csv", adapterKey, ts)
	default:
		return fmt.Sprintf("payload_%s_%s.json", adapterKey, ts)
	}
}

// Write persists the side files of result and returns their paths by kind.
func (w *Writer) Write(result *core.BatchResult) (map[string]string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	ts := result.GeneratedAt.Format(TimestampLayout)
	files := make(map[string]string, 3)

	write := func(kind string, fn func(f *os.File) error) error {
		path := filepath.Join(w.Dir, FileName(kind, result.AdapterKey, ts))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", kind, err)
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", kind, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", kind, err)
		}
		files[kind] = path
		return nil
	}

	if err := write(KindLog, func(f *os.File) error { return WriteAuditLog(f, result) }); err != nil {
		return nil, err
	}
	if err := write(KindSummary, func(f *os.File) error { return WriteSummary(f, result.Summary) }); err != nil {
		return nil, err
	}
	if w.Payload {
		payload := result.Payload()
		if err := write(KindPayload, func(f *os.File) error { return WritePayload(f, payload, false) }); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// safeName keeps adapter keys usable as file name fragments.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}
