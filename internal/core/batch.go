package core

import "time"

// Aggregator collects per-row results for one batch. It is the only writer
// of the summary counts.
type Aggregator struct {
	result *BatchResult
}

// NewAggregator starts an empty batch.
func NewAggregator(adapterKey string, mode Mode, identify []string) *Aggregator {
	return &Aggregator{result: &BatchResult{
		AdapterKey: adapterKey,
		Mode:       mode,
		Identify:   identify,
	}}
}

// Add records one row outcome. rec is kept only for Success rows.
func (a *Aggregator) Add(outcome RowOutcome, rec Record) {
	a.result.Outcomes = append(a.result.Outcomes, outcome)
	switch outcome.Result {
	case ResultSuccess:
		a.result.Summary.SuccessCount++
		if rec != nil {
			a.result.Records = append(a.result.Records, rec)
		}
	case ResultSkipped:
		a.result.Summary.SkippedCount++
	default:
		a.result.Summary.ErrorCount++
	}
}

// AddWarning records a batch-level warning.
func (a *Aggregator) AddWarning(w ...string) {
	a.result.Warnings = append(a.result.Warnings, w...)
}

// Finish stamps the batch and returns it.
func (a *Aggregator) Finish(now time.Time) *BatchResult {
	r := a.result
	r.GeneratedAt = now
	r.Summary.RecordCount = len(r.Records)
	r.Summary.GeneratedAt = now
	return r
}
