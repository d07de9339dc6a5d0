package core

// pipeline.go runs one adapter over one CSV input.
//
// The run is sequential: each data line is tokenized, transformed,
// classified and aggregated before the next one is read, so records and
// outcomes keep input order. Only batch-start problems (unreadable input,
// empty file, strict header failures) abort the run; row problems become
// Skipped or Error outcomes.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// MaxFileSize is the default input size limit (100MB).
var MaxFileSize int64 = 100 * 1024 * 1024

// ErrEmptyInput is returned when the input has no data line after the header.
var ErrEmptyInput = errors.New("CSV file is empty or malformed")

// RunOptions configures one pipeline run.
type RunOptions struct {
	Mode         Mode
	LookupPolicy LookupPolicy
	Lookups      Lookups
	Now          func() time.Time // Batch clock, defaults to time.Now
	Logger       *slog.Logger     // Defaults to slog.Default()
	MaxBytes     int64            // Input size limit, <= 0 disables it
}

func (o RunOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o RunOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Run transforms every data line of r with def.
func Run(ctx context.Context, r io.Reader, def *AdapterDefinition, opts RunOptions) (*BatchResult, error) {
	log := opts.logger().With("adapter", def.Info.Key, "mode", opts.Mode.String())
	start := opts.now()

	tr, err := NewTransformer(def, TransformOptions{
		Mode:         opts.Mode,
		Lookups:      opts.Lookups,
		LookupPolicy: opts.LookupPolicy,
		Now:          start,
	})
	if err != nil {
		var fe *FatalError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, Fatal("ADP001", "invalid adapter definition", err)
	}

	reader := newReader(r, opts.MaxBytes)

	rawHeader, err := reader.Read()
	if err != nil {
		return nil, readError(err)
	}

	headers := NormalizeHeaders(rawHeader, def)
	warnings, err := ValidateHeaders(headers, def.HeaderPolicy)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn("header check", "warning", w)
	}

	identify := make([]string, 0, len(def.Identify))
	for _, k := range def.Identify {
		identify = append(identify, def.canonical(k))
	}

	agg := NewAggregator(def.Info.AdapterKey(), opts.Mode, identify)
	agg.AddWarning(warnings...)

	lines := 0
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, Fatal("UPL001", "migration cancelled", err)
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		lines++

		rowIndex := RowIndex(i)
		if len(fields) != len(headers.Keys) {
			log.Warn("skipping row", "row", rowIndex, "reason", MessageMismatchedColumns,
				"got", len(fields), "want", len(headers.Keys))
			agg.Add(Mismatched(rowIndex, fields, headers.Keys, identify), nil)
			continue
		}

		row := make(CanonicalRow, len(fields))
		for j, key := range headers.Keys {
			row[key] = CleanCell(fields[j])
		}

		res, err := transformRow(tr, row)
		outcome := Classify(rowIndex, row, identify, res, err)
		switch outcome.Result {
		case ResultSkipped:
			log.Warn("skipping row", "row", rowIndex, "reason", outcome.Message)
		case ResultError:
			log.Error("row failed", "row", rowIndex, "error", outcome.Message)
		default:
			for _, w := range res.Warnings {
				log.Warn("row warning", "row", rowIndex, "warning", w)
			}
			if len(res.Dropped) > 0 {
				log.Warn("dropped fields", "row", rowIndex, "fields", res.Dropped)
			}
		}
		agg.Add(outcome, res.Record)
	}

	if lines == 0 {
		return nil, &FatalError{Code: "FILE005", Message: ErrEmptyInput.Error()}
	}

	result := agg.Finish(opts.now())
	log.Info("batch complete",
		"records", result.Summary.RecordCount,
		"skipped", result.Summary.SkippedCount,
		"errors", result.Summary.ErrorCount,
		"duration_ms", result.GeneratedAt.Sub(start).Milliseconds(),
	)
	return result, nil
}

// newReader configures the CSV tokenizer: ragged lines are allowed and bare
// quotes inside fields are kept literally.
func newReader(r io.Reader, maxBytes int64) *csv.Reader {
	reader := csv.NewReader(DecodeInput(NewCountingReader(r, maxBytes)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// ReadHeader returns the trimmed header labels of r without reading further.
func ReadHeader(r io.Reader, maxBytes int64) ([]string, error) {
	raw, err := newReader(r, maxBytes).Read()
	if err != nil {
		return nil, readError(err)
	}
	labels := make([]string, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = StripBOM(h)
		}
		labels[i] = strings.TrimSpace(h)
	}
	return labels, nil
}

// transformRow runs the transformer and turns a panic into a row Error.
func transformRow(tr *Transformer, row CanonicalRow) (res TransformResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = TransformResult{}
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return tr.Transform(row)
}

func readError(err error) error {
	switch {
	case err == io.EOF:
		return &FatalError{Code: "FILE005", Message: ErrEmptyInput.Error()}
	case errors.Is(err, ErrFileTooLarge):
		return Fatal("FILE001", "file too large", err)
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FatalError{
			Code:    "FILE002",
			Message: fmt.Sprintf("invalid csv on line %d: %v", pe.Line, pe.Err),
			Context: map[string]any{"line": pe.Line},
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "utf") {
		return Fatal("FILE003", "encoding error", err)
	}
	return Fatal("FILE001", "unreadable input", err)
}
