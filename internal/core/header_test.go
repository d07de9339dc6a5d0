package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStripBOM(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "decoded BOM", input: "\ufeffName", want: "Name"},
		{name: "mojibake BOM", input: "\u00ef\u00bb\u00bfName", want: "Name"},
		{name: "no BOM", input: "Name", want: "Name"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripBOM(tt.input); got != tt.want {
				t.Errorf("StripBOM(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		name        string
		def         *AdapterDefinition
		raw         []string
		wantKeys    []string
		wantMissing []string
	}{
		{
			name:     "labels map to keys",
			def:      teamsFixture(),
			raw:      []string{"\ufeffName", " Description ", "Projects"},
			wantKeys: []string{"name", "description", "projects"},
		},
		{
			name:     "unmapped columns pass through trimmed",
			def:      teamsFixture(),
			raw:      []string{"Name", "Description", "Projects", " Colour "},
			wantKeys: []string{"name", "description", "projects", "Colour"},
		},
		{
			name:        "missing expected column reported",
			def:         teamsFixture(),
			raw:         []string{"Name", "Projects"},
			wantKeys:    []string{"name", "projects"},
			wantMissing: []string{"description"},
		},
		{
			name:        "raw spelling of a key passes through",
			def:         sampleFixture(),
			raw:         []string{"name", "Email", "Role"},
			wantKeys:    []string{"name", "email", "role"},
			wantMissing: nil,
		},
		{
			name:        "case variant is not a match",
			def:         sampleFixture(),
			raw:         []string{"NAME", "Email", "Role"},
			wantKeys:    []string{"NAME", "email", "role"},
			wantMissing: []string{"name"},
		},
		{
			name: "folded headers tolerate case",
			def: &AdapterDefinition{
				Info:        AdapterInfo{Key: "rel"},
				FoldHeaders: true,
				Fields:      []FieldSpec{{Label: "User", Key: "user"}, {Label: "Team", Key: "team"}},
			},
			raw:      []string{"USER", "team", "Extra Col"},
			wantKeys: []string{"user", "team", "extra col"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeHeaders(tt.raw, tt.def)
			if diff := cmp.Diff(tt.wantKeys, got.Keys); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantMissing, got.Missing); diff != "" {
				t.Errorf("missing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHeaderSetIndex(t *testing.T) {
	h := HeaderSet{Keys: []string{"name", "email", "name"}}
	idx := h.Index()
	if idx["name"] != 2 || idx["email"] != 1 {
		t.Errorf("Index() = %v, want name=2 email=1", idx)
	}
}

func TestValidateHeaders(t *testing.T) {
	missing := HeaderSet{Keys: []string{"name"}, Missing: []string{"email", "role"}}

	t.Run("complete header", func(t *testing.T) {
		w, err := ValidateHeaders(HeaderSet{Keys: []string{"name"}}, HeaderStrict)
		if err != nil || w != nil {
			t.Errorf("ValidateHeaders() = %q, %v; want nil, nil", w, err)
		}
	})

	t.Run("strict is fatal", func(t *testing.T) {
		_, err := ValidateHeaders(missing, HeaderStrict)
		var fe *FatalError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FatalError, got %v", err)
		}
		if fe.Code != "HDR001" {
			t.Errorf("code = %q, want HDR001", fe.Code)
		}
		if fe.Message != "missing required columns: email, role" {
			t.Errorf("message = %q", fe.Message)
		}
	})

	t.Run("lenient warns", func(t *testing.T) {
		w, err := ValidateHeaders(missing, HeaderLenient)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"missing expected columns: email, role"}
		if diff := cmp.Diff(want, w); diff != "" {
			t.Errorf("warnings mismatch (-want +got):\n%s", diff)
		}
	})
}
