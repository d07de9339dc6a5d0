package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeReports struct {
	calls int
	err   error
}

func (f *fakeReports) Write(result *BatchResult) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return map[string]string{"payload": "payload_" + result.AdapterKey + ".json"}, nil
}

func teamsWithLookupPath(path string) *AdapterDefinition {
	def := teamsFixture()
	def.Lookups[0].Path = path
	return def
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestService_Migrate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "projects.csv", "id,name\n3,ProjA\n9,ProjB\n")
	withRegistry(t, teamsWithLookupPath("projects.csv"))

	reports := &fakeReports{}
	svc := NewService(ServiceConfig{LookupDir: dir, Reports: reports, Now: fixedClock})

	res, err := svc.Migrate(context.Background(), MigrationRequest{
		AdapterKey: "teams",
		Input:      csvInput("Name,Description,Projects", "Alpha,First,\"ProjB;ProjA\""),
		FileName:   "teams.csv",
	})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if res.RunID == "" {
		t.Error("run id should be generated")
	}
	if reports.calls != 1 || res.ReportFiles["payload"] != "payload_teams.json" {
		t.Errorf("reports = %d calls, files %v", reports.calls, res.ReportFiles)
	}

	ops := res.Batch.Records[0]["projectOperations"].(OperationBlock)
	if diff := cmp.Diff([]any{int64(9), int64(3)}, ops["relate"]); diff != "" {
		t.Errorf("relate mismatch (-want +got):\n%s", diff)
	}
}

func TestService_MigrateDryRun(t *testing.T) {
	withRegistry(t, sampleFixture())
	reports := &fakeReports{}
	svc := NewService(ServiceConfig{Reports: reports, Now: fixedClock})

	resp, err := svc.Preview(context.Background(), MigrationRequest{
		AdapterKey: "sample",
		Input:      csvInput("Name,Email,Role", "jane,j@x.y,admin", ",k@x.y,user"),
	}, 5)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if reports.calls != 0 {
		t.Errorf("dry run wrote %d reports", reports.calls)
	}
	if resp.Summary.SuccessRows != 1 || resp.Summary.SkippedRows != 1 {
		t.Errorf("summary = %+v", resp.Summary)
	}
}

func TestService_MissingLookupWarns(t *testing.T) {
	withRegistry(t, teamsWithLookupPath("absent.csv"))
	svc := NewService(ServiceConfig{LookupDir: t.TempDir(), Now: fixedClock})

	res, err := svc.Migrate(context.Background(), MigrationRequest{
		AdapterKey: "teams",
		Input:      csvInput("Name,Description,Projects", "Alpha,First,ProjA"),
	})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(res.LookupWarnings) != 1 || !strings.Contains(res.LookupWarnings[0], "file not found") {
		t.Errorf("lookup warnings = %q", res.LookupWarnings)
	}
	if len(res.Batch.Warnings) == 0 || res.Batch.Warnings[0] != res.LookupWarnings[0] {
		t.Errorf("batch warnings should lead with lookup warnings, got %q", res.Batch.Warnings)
	}
	if got := res.Batch.Outcomes[0].Warnings; len(got) != 1 {
		t.Errorf("row warnings = %q, want the unresolved project", got)
	}
}

func TestService_LookupPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.csv", "id,name\n1,ProjA\n")
	writeFile(t, dir, "configured.csv", "id,name\n2,ProjA\n")
	override := writeFile(t, dir, "override.csv", "id,name\n3,ProjA\n")

	def := teamsWithLookupPath("default.csv")

	tests := []struct {
		name      string
		cfg       map[string]map[string]string
		overrides map[string]string
		want      string
	}{
		{"definition default", nil, nil, "1"},
		{"configured path", map[string]map[string]string{"teams": {"projects": "configured.csv"}}, nil, "2"},
		{"per-call override", map[string]map[string]string{"teams": {"projects": "configured.csv"}}, map[string]string{"projects": override}, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(ServiceConfig{LookupDir: dir, LookupPaths: tt.cfg})
			lookups, _, err := svc.LoadLookups(def, tt.overrides)
			if err != nil {
				t.Fatalf("LoadLookups: %v", err)
			}
			if got, _ := lookups.Table("projects").Resolve("ProjA"); got != tt.want {
				t.Errorf("ProjA = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_Fatal(t *testing.T) {
	withRegistry(t, sampleFixture())

	tests := []struct {
		name     string
		reports  ReportWriter
		req      MigrationRequest
		wantCode string
	}{
		{
			name:     "no input",
			req:      MigrationRequest{AdapterKey: "sample"},
			wantCode: "FILE004",
		},
		{
			name:     "unknown adapter",
			req:      MigrationRequest{AdapterKey: "nope", Input: csvInput("a")},
			wantCode: "ADP001",
		},
		{
			name:     "report failure",
			reports:  &fakeReports{err: errors.New("disk full")},
			req:      MigrationRequest{AdapterKey: "sample", Input: csvInput("Name,Email,Role", "a,b,c")},
			wantCode: "OUT001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(ServiceConfig{Reports: tt.reports, Now: fixedClock})
			_, err := svc.Migrate(context.Background(), tt.req)
			if got := AsFatal(err).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q (%v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestService_ListAdaptersByGroup(t *testing.T) {
	withRegistry(t, teamsFixture(), classificationsFixture(), postcodeFixture())
	svc := NewService(ServiceConfig{})

	if got := len(svc.ListAdapters()); got != 3 {
		t.Errorf("ListAdapters() = %d, want 3", got)
	}
	groups := svc.ListAdaptersByGroup()
	if len(groups["Classifications"]) != 2 || len(groups["Teams"]) != 1 {
		t.Errorf("groups = %v", groups)
	}
}
