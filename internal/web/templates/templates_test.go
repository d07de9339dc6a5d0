package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	var buf bytes.Buffer
	err := Index([]AdapterGroup{{
		Name: "Teams",
		Adapters: []AdapterView{
			{Key: "teams", Label: "Teams <new>", Modes: []string{"insert", "update"}},
		},
	}}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<h2>Teams</h2>")
	assert.Contains(t, html, "Teams &lt;new&gt;")
	assert.Contains(t, html, `action="/api/migrate/teams"`)
	assert.Contains(t, html, `<option value="update">update</option>`)
}

func TestIndex_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Index(nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No adapters registered.")
}

func TestResult(t *testing.T) {
	var buf bytes.Buffer
	err := Result(ResultView{
		RunID:       "r1",
		AdapterKey:  "teams",
		Mode:        "insert",
		Records:     2,
		Success:     2,
		Skipped:     1,
		Warnings:    []string{`projects: unresolved lookup reference "X"`},
		ReportFiles: map[string]string{"log": "/reports/a.csv"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Success 2, Skipped 1, Error 0")
	assert.Contains(t, html, "&#34;X&#34;")
	assert.Contains(t, html, `href="/reports/a.csv"`)
	assert.NotContains(t, html, ">summary<")
}

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("Bad <file>", "", "FILE002").Render(context.Background(), &buf))
	assert.Equal(t, `<div class="alert" role="alert"><p>Bad &lt;file&gt;</p><small>Code: FILE002</small></div>`, buf.String())
}
