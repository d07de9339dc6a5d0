package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

const sampleProfile = `
lookup_dir: ./lookups
adapters:
  teams:
    mode: insert
    lookup_policy: skip
    lookups:
      projects: LookupProjectIdForTeams.csv
  teams_users:
    mode: update
`

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("ParseProfile() error = %v", err)
	}

	if p.LookupDir != "./lookups" {
		t.Errorf("LookupDir = %q, want ./lookups", p.LookupDir)
	}
	if got := p.For("teams").LookupPolicy; got != "skip" {
		t.Errorf("teams lookup_policy = %q, want skip", got)
	}
	if got := p.For("unknown"); got.Mode != "" || got.Lookups != nil {
		t.Errorf("For(unknown) = %+v, want zero value", got)
	}

	want := map[string]map[string]string{"teams": {"projects": "LookupProjectIdForTeams.csv"}}
	if diff := cmp.Diff(want, p.LookupPaths()); diff != "" {
		t.Errorf("LookupPaths mismatch (-want +got):\n%s", diff)
	}
}

func TestParseProfile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad mode", "adapters:\n  teams:\n    mode: upsert\n", "adapters.teams.mode"},
		{"bad policy", "adapters:\n  teams:\n    lookup_policy: ignore\n", "adapters.teams.lookup_policy"},
		{"unknown key", "adapter:\n  teams: {}\n", "parse profile"},
		{"not yaml", "adapters: [", "parse profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseProfile() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		p, err := LoadProfile("")
		if err != nil || p == nil || len(p.Adapters) != 0 {
			t.Errorf("LoadProfile(\"\") = %+v, %v", p, err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.yaml")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadProfile(path); err != nil {
			t.Errorf("LoadProfile(empty) error = %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing profile")
		}
	})
}

func TestPick(t *testing.T) {
	tests := []struct {
		flag, profile, fallback, want string
	}{
		{"update", "insert", "insert", "update"},
		{"", "skip", "warn", "skip"},
		{"", " ", "warn", "warn"},
	}

	for _, tt := range tests {
		if got := Pick(tt.flag, tt.profile, tt.fallback); got != tt.want {
			t.Errorf("Pick(%q, %q, %q) = %q, want %q", tt.flag, tt.profile, tt.fallback, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	p, err := ParseProfile([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("ParseProfile() error = %v", err)
	}
	cfg := &Config{Migration: MigrationConfig{Mode: "insert", LookupPolicy: "warn"}}

	both := &core.AdapterDefinition{
		Info:  core.AdapterInfo{Key: "teams"},
		Modes: map[core.Mode]core.ModeConfig{core.ModeInsert: {}, core.ModeUpdate: {}},
	}
	updateOnly := &core.AdapterDefinition{
		Info:  core.AdapterInfo{Key: "users_teams_role"},
		Modes: map[core.Mode]core.ModeConfig{core.ModeUpdate: {}},
	}

	tests := []struct {
		name         string
		def          *core.AdapterDefinition
		mode, policy string
		wantMode     core.Mode
		wantPolicy   core.LookupPolicy
		wantLookups  int
	}{
		{"profile values", both, "", "", core.ModeInsert, core.LookupSkip, 1},
		{"request wins", both, "update", "warn", core.ModeUpdate, core.LookupWarn, 1},
		{"env default unsupported", updateOnly, "", "", core.ModeUpdate, core.LookupWarn, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := cfg.Resolve(tt.def, p, tt.mode, tt.policy)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if rs.Mode != tt.wantMode {
				t.Errorf("Mode = %v, want %v", rs.Mode, tt.wantMode)
			}
			if rs.LookupPolicy != tt.wantPolicy {
				t.Errorf("LookupPolicy = %v, want %v", rs.LookupPolicy, tt.wantPolicy)
			}
			if len(rs.Lookups) != tt.wantLookups {
				t.Errorf("Lookups = %v, want %d entries", rs.Lookups, tt.wantLookups)
			}
		})
	}

	if _, err := cfg.Resolve(both, nil, "upsert", ""); err == nil {
		t.Error("Resolve(upsert) error = nil, want error")
	}
}
