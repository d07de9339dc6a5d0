package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleResult() *core.BatchResult {
	agg := core.NewAggregator("teams", core.ModeInsert, []string{"name"})
	agg.Add(core.RowOutcome{
		RowIndex: 2,
		Result:   core.ResultSuccess,
		Fields:   map[string]string{"name": "Alpha"},
		Message:  `projects: unresolved lookup reference "Ghost"`,
	}, core.Record{"values": map[string]any{"name": "Alpha", "url": "https://x/y?a=1&b=2"}})
	agg.Add(core.RowOutcome{
		RowIndex: 3,
		Result:   core.ResultSkipped,
		Fields:   map[string]string{"name": ""},
		Message:  "name: missing mandatory field",
	}, nil)
	return agg.Finish(fixedNow)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestFileName(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{KindLog, "migration_log_teams_20250314_092653.csv"},
		{KindSummary, "migration_summary_teams_20250314_092653.csv"},
		{KindPayload, "payload_teams_20250314_092653.json"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.kind, "teams", fixedNow.Format(TimestampLayout)))
		})
	}

	assert.Equal(t, "payload_a_b_ts.json", FileName(KindPayload, "a/b", "ts"))
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "auditreports")
	w := NewWriter(dir, true)

	files, err := w.Write(sampleResult())
	require.NoError(t, err)
	require.Len(t, files, 3)

	logRows := readCSV(t, files[KindLog])
	assert.Equal(t, [][]string{
		{"rowIndex", "name", "message", "result"},
		{"2", "Alpha", `projects: unresolved lookup reference "Ghost"`, "Success"},
		{"3", "", "name: missing mandatory field", "Skipped"},
	}, logRows)

	summaryRows := readCSV(t, files[KindSummary])
	assert.Equal(t, [][]string{
		SummaryHeader,
		{"1", "1", "1", "0", "2025-03-14T09:26:53Z"},
	}, summaryRows)

	raw, err := os.ReadFile(files[KindPayload])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "https://x/y?a=1&b=2", "payload must not escape slashes or ampersands")

	var payload core.Payload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, 1, payload.RecordCount)
	assert.Equal(t, "teams", payload.AdapterKey)
	assert.Equal(t, "2025-03-14T09:26:53Z", payload.GeneratedAt)
}

func TestWriter_WithoutPayload(t *testing.T) {
	files, err := NewWriter(t.TempDir(), false).Write(sampleResult())
	require.NoError(t, err)
	assert.NotContains(t, files, KindPayload)
	assert.Len(t, files, 2)
}

func TestWriter_UnwritableDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewWriter(filepath.Join(blocker, "sub"), true).Write(sampleResult())
	assert.Error(t, err)
}

func TestWritePayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePayload(&buf, map[string]any{"a": "<b>"}, true))
	assert.Equal(t, "{\"a\":\"<b>\"}\n", buf.String())

	buf.Reset()
	require.NoError(t, WritePayload(&buf, map[string]any{"a": 1}, false))
	assert.Equal(t, "{\n    \"a\": 1\n}\n", buf.String())
}

func TestWritePayload_EmptyBatch(t *testing.T) {
	result := core.NewAggregator("sample", core.ModeInsert, nil).Finish(fixedNow)

	var buf bytes.Buffer
	require.NoError(t, WritePayload(&buf, result.Payload(), true))
	assert.True(t, strings.Contains(buf.String(), `"records":[]`), buf.String())
	assert.True(t, strings.Contains(buf.String(), `"recordCount":0`), buf.String())
}

func TestWriteFatal(t *testing.T) {
	var buf bytes.Buffer
	err := &core.FatalError{Code: "HDR001", Message: "missing required columns: name", Context: map[string]any{"missing": []string{"name"}}}
	require.NoError(t, WriteFatal(&buf, err, true))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "HDR001", doc["code"])
	assert.Equal(t, "missing required columns: name", doc["error"])
	assert.Equal(t, []any{"name"}, doc["missing"])

	buf.Reset()
	require.NoError(t, WriteFatal(&buf, errors.New("CSV file is empty or malformed"), true))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FILE005", doc["code"])
}
