package core

import "sort"

// PreviewSummary contains the counts of a dry run.
type PreviewSummary struct {
	TotalRows    int `json:"totalRows"`
	SuccessRows  int `json:"successRows"`
	SkippedRows  int `json:"skippedRows"`
	ErrorRows    int `json:"errorRows"`
	WarningCount int `json:"warningCount"`
}

// RowPreview is a successful row and the record it produced.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	Fields     map[string]string `json:"fields,omitempty"`
	Record     Record            `json:"record"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// OutcomePreview is a Skipped or Error row.
type OutcomePreview struct {
	LineNumber int               `json:"lineNumber"`
	Fields     map[string]string `json:"fields,omitempty"`
	Message    string            `json:"message"`
}

// PreviewResponse is the result of a dry run: no side files are written.
type PreviewResponse struct {
	AdapterKey     string           `json:"adapter_key"`
	Mode           string           `json:"mode"`
	Summary        PreviewSummary   `json:"summary"`
	SuccessSamples []RowPreview     `json:"successSamples"`
	SkippedSamples []OutcomePreview `json:"skippedSamples"`
	ErrorSamples   []OutcomePreview `json:"errorSamples"`
	DroppedFields  []string         `json:"droppedFields"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// DefaultPreviewSamples is the sample size used when none is given.
const DefaultPreviewSamples = 10

// Preview summarizes a batch result, keeping the first sampleSize rows of
// each outcome class and the union of dropped keys.
func Preview(result *BatchResult, sampleSize int) *PreviewResponse {
	if sampleSize <= 0 {
		sampleSize = DefaultPreviewSamples
	}

	resp := &PreviewResponse{
		AdapterKey:     result.AdapterKey,
		Mode:           result.Mode.String(),
		SuccessSamples: []RowPreview{},
		SkippedSamples: []OutcomePreview{},
		ErrorSamples:   []OutcomePreview{},
		DroppedFields:  []string{},
		Warnings:       result.Warnings,
	}

	dropped := make(map[string]bool)
	recordIdx := 0
	for _, o := range result.Outcomes {
		resp.Summary.TotalRows++
		resp.Summary.WarningCount += len(o.Warnings)

		switch o.Result {
		case ResultSuccess:
			resp.Summary.SuccessRows++
			for _, k := range o.Dropped {
				dropped[k] = true
			}
			if len(resp.SuccessSamples) < sampleSize && recordIdx < len(result.Records) {
				resp.SuccessSamples = append(resp.SuccessSamples, RowPreview{
					LineNumber: o.RowIndex,
					Fields:     o.Fields,
					Record:     result.Records[recordIdx],
					Warnings:   o.Warnings,
				})
			}
			recordIdx++
		case ResultSkipped:
			resp.Summary.SkippedRows++
			if len(resp.SkippedSamples) < sampleSize {
				resp.SkippedSamples = append(resp.SkippedSamples, OutcomePreview{
					LineNumber: o.RowIndex,
					Fields:     o.Fields,
					Message:    o.Message,
				})
			}
		default:
			resp.Summary.ErrorRows++
			if len(resp.ErrorSamples) < sampleSize {
				resp.ErrorSamples = append(resp.ErrorSamples, OutcomePreview{
					LineNumber: o.RowIndex,
					Fields:     o.Fields,
					Message:    o.Message,
				})
			}
		}
	}

	for k := range dropped {
		resp.DroppedFields = append(resp.DroppedFields, k)
	}
	sort.Strings(resp.DroppedFields)
	return resp
}
