package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

const sampleCSV = "Name,Email,Role\njane,JANE@x.io,admin\n,missing@x.io,viewer\n"

// execute runs the root command and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.now = func() time.Time { return fixedNow }

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&stderr)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sample.csv", sampleCSV)
	audit := filepath.Join(dir, "audit")

	out, err := execute(t, "run", "sample", input, "--audit-dir", audit)
	require.NoError(t, err)

	var payload core.Payload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, 1, payload.RecordCount)
	assert.Equal(t, "sample", payload.AdapterKey)
	assert.Equal(t, "2025-03-14T09:26:53Z", payload.GeneratedAt)
	assert.Contains(t, out, "\n    \"recordCount\"")

	for _, name := range []string{
		"migration_log_sample_20250314_092653.csv",
		"migration_summary_sample_20250314_092653.csv",
		"payload_sample_20250314_092653.json",
	} {
		assert.FileExists(t, filepath.Join(audit, name))
	}
}

func TestRun_NoAuditCompact(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sample.csv", sampleCSV)
	audit := filepath.Join(dir, "audit")

	out, err := execute(t, "run", "sample", input, "--audit-dir", audit, "--no-audit", "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, `{"recordCount":1,`)
	assert.NoDirExists(t, audit)
}

func TestRun_LookupFlag(t *testing.T) {
	dir := t.TempDir()
	lookup := writeFile(t, dir, "projects.csv", "id,name\n3,ProjA\n9,ProjB\n")
	input := writeFile(t, dir, "teams.csv", "Name,Description,Projects\nAlpha,,\"ProjB,ProjA\"\n")

	out, err := execute(t, "run", "teams", input, "--no-audit", "--lookup", "projects="+lookup)
	require.NoError(t, err)

	var payload struct {
		Records []struct {
			ProjectOperations map[string][]float64 `json:"projectOperations"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Records, 1)
	assert.Equal(t, []float64{9, 3}, payload.Records[0].ProjectOperations["relate"])
}

func TestRun_Fatal(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sample.csv", sampleCSV)
	empty := writeFile(t, dir, "empty.csv", "")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown adapter", []string{"run", "nope", input}, "ADP001"},
		{"missing file", []string{"run", "sample", filepath.Join(dir, "missing.csv")}, "FILE001"},
		{"empty file", []string{"run", "sample", empty}, "FILE005"},
		{"unsupported mode", []string{"run", "sample", input, "--mode", "update"}, "ADP002"},
		{"bad policy", []string{"run", "sample", input, "--lookup-policy", "drop"}, "ADP002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append(tt.args, "--no-audit")...)
			require.ErrorIs(t, err, errReported)

			var doc map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
			assert.Equal(t, tt.code, doc["code"])
			assert.NotEmpty(t, doc["error"])
		})
	}
}

func TestRun_BadLookupFlag(t *testing.T) {
	out, err := execute(t, "run", "teams", "x.csv", "--lookup", "projects")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)
	assert.Empty(t, out)
}

func TestRun_ProfileAuditDir(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sample.csv", sampleCSV)
	audit := filepath.Join(dir, "from-profile")
	profile := writeFile(t, dir, "profile.yaml", "audit_dir: "+audit+"\n")

	_, err := execute(t, "run", "sample", input, "--profile", profile)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(audit, "migration_summary_sample_20250314_092653.csv"))
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sample.csv", sampleCSV)
	audit := filepath.Join(dir, "audit")

	out, err := execute(t, "preview", "sample", input, "--audit-dir", audit, "--samples", "1")
	require.NoError(t, err)

	var resp core.PreviewResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Summary.TotalRows)
	assert.Equal(t, 1, resp.Summary.SuccessRows)
	assert.Len(t, resp.SkippedSamples, 1)
	assert.NoDirExists(t, audit)
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Samples\n")
	assert.Regexp(t, `(?m)^  users_teams_role\s+.*\s+update$`, out)
	assert.Regexp(t, `(?m)^  users\s+.*\s+insert,update$`, out)
}

func TestList_JSON(t *testing.T) {
	out, err := execute(t, "list", "--json")
	require.NoError(t, err)

	var entries []adapterEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, core.AdapterCount())
}

func TestTemplate(t *testing.T) {
	out, err := execute(t, "template", "sample")
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Role\n", out)

	_, err = execute(t, "template", "nope")
	assert.ErrorContains(t, err, "unknown adapter")
}

func TestDetect(t *testing.T) {
	input := writeFile(t, t.TempDir(), "in.csv", "Name,Email,Role\na,b,c\n")

	out, err := execute(t, "detect", input)
	require.NoError(t, err)

	var res detectResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "sample", res.Matches[0].Key)
}

func TestParseLookupFlags(t *testing.T) {
	got, err := parseLookupFlags([]string{"projects=a.csv", " teams = b.csv "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"projects": "a.csv", "teams": "b.csv"}, got)

	for _, bad := range []string{"projects", "=a.csv", "projects="} {
		_, err := parseLookupFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestMergeLookups(t *testing.T) {
	got := mergeLookups(
		map[string]string{"projects": "profile.csv", "teams": "t.csv"},
		map[string]string{"projects": "flag.csv"},
	)
	assert.Equal(t, map[string]string{"projects": "flag.csv", "teams": "t.csv"}, got)
}
